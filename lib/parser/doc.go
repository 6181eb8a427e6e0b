// Package parser defines the contract between file-format parsers and the
// storage core, and an explicit format registry populated at startup.
//
// A parser is a function from a file path (plus type-specific keyword hints)
// to a mapping of label -> ParsedUnit, where each unit is a time-indexed
// dataset and its flat metadata. The storage core consumes only this shape;
// instrument-specific parsing stays behind the registry.
//
// Registration is explicit and checked: Register fails on a duplicate
// format name, so dispatch never depends on package initialization order.
//
// The package ships one reference parser, FormatCSV, built on csvutil: a
// "time" column plus one value column per species.
package parser
