// Package cmd implements the kolist command-line interface. It exercises the
// keyed list library from the terminal.
//
// The package is organized into several subpackages:
//
//   - demo: A scripted walk through every list operation that prints the typed
//     and the legacy change stream
//   - perf: A concurrent benchmark of the core operations against one list
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Every flag can also be set through the environment as KOLIST_<FLAG>, with
// dashes replaced by underscores (e.g. KOLIST_LOG_LEVEL=debug). Values are also
// read from .env and .env.local in the working directory.
//
// See kolist -help for a list of all commands.
package cmd
