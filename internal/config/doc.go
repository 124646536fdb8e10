// Package config provides centralized configuration management for the
// sales pipeline. It loads configuration from multiple sources, validates
// it, and hands a single explicit Config value to every stage; there is
// no package-level mutable state.
//
// # Configuration Sources
//
// Configuration is resolved in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern SALES_* for namespacing:
//
//	SALES_INPUT_DIR=data
//	SALES_OUTPUT_DIR=outputs
//	SALES_CLEANING_OUTLIER_PERCENTILE=0.999
//	SALES_ANALYTICS_FAIL_FAST=true
//	SALES_LOGGING_LEVEL=debug
//
// # File Locations
//
// When no explicit path is given, Load probes config.yaml and
// configs/config.yaml relative to the working directory.
package config
