// Package exporter persists the pipeline outputs for external
// dashboard and charting consumers.
//
// Three writers cover the file-based exchange boundary:
//
// CSVWriter renders the clean table as the master CSV, canonical
// columns first and derived calendar columns after, optionally with a
// UTF-8 BOM so Excel opens it cleanly.
//
// ResultsWriter marshals the KPI result document to indented JSON for
// direct machine consumption.
//
// WorkbookWriter lays the KPI sections out as an Excel workbook, one
// sheet per section, for analysts who skip the JSON.
package exporter
