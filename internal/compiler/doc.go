// Package compiler turns query tree documents into querytree nodes.
//
// Documents can be written in YAML, JSON or CUE; all three share the
// document format of querytree.Decode. Errors are *CompileError values that
// carry the document path of the offending element and, for YAML and CUE
// sources, its file position.
//
// CUE sources can also be whole packages: LoadCUEPackage compiles every
// entry of a top-level "trees" struct, which lets a package share schema
// definitions and common subexpressions between trees.
package compiler
