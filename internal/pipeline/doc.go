// Package pipeline wires the batch stages into one run: load the three
// source files, merge them, clean the merged table, aggregate KPIs, and
// export the artifacts. Stages execute sequentially; each one fully
// consumes its input before the next starts. The runner records
// per-stage status and timing in a Summary and opens an OpenTelemetry
// span per stage, so a failed run still reports which stages finished
// and what each one counted.
package pipeline
