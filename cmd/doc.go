// Package cmd implements the command-line interface for the gasvault
// storage engine. It provides a hierarchical command structure for ingesting
// measurement files and inspecting the stored datasources.
//
// The package is organized into several subpackages:
//
//   - ingest: Command for parsing and ingesting measurement files
//   - ds: Commands for datasource operations (search, info, list, delete)
//   - perf: Benchmark command using synthetic observation data
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See gasvault -help for a list of all commands.
package cmd
