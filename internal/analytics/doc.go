// Package analytics computes the KPI result document from the cleaned
// sales tables: revenue summary, quarterly and Q4-over-Q3 growth,
// category/region/channel breakdowns, monthly trend, return rates, and
// a Q4-versus-rest significance test.
//
// Every computation guards its own degeneracies (zero denominators,
// undersized samples, zero variance) with named errors. Under the
// default lenient policy a failed KPI is recorded in the result's
// failure list and the rest of the document is still produced; strict
// mode aborts on the first failure.
package analytics
