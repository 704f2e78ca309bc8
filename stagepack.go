/*
Package stagepack stages a compiled desktop application into a
platform-specific tree and packages that tree for distribution.

The pipeline has two halves:
  - Staging copies runtime files from the source and build directories
    into a destination tree, following a per-platform recipe written
    with a small file-selection language.
  - Packaging turns the staged tree into a Linux tarball, a macOS disk
    image, or a verified Windows installer input directory.

# Configuration

stagepack reads a YAML file (.stagepack.yaml) describing the product,
the directory layout, the build descriptor and optional hooks. Values
may use Go's text/template syntax and files may include others.

# Usage

	stagepack stage               # Populate the staging tree
	stagepack package             # Stage and package
	stagepack check               # Validate the configuration
*/
package stagepack

// Version is the current version of stagepack
const Version = "1.0.0"

// BuildDate is set at build time
var BuildDate string

// GitCommit is set at build time
var GitCommit string
