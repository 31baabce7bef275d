// Package internal contains the implementation packages of assetpack.
//
// # Package Organization
//
//   - asset: asset specs, parsed inputs and staleness checks
//   - config: configuration files, overrides, validated settings and export
//   - errors: typed pack errors, collection and log routing
//   - finder: on-demand lookup and listing of packed assets
//   - logging: structured logging with file rotation
//   - middleware: HTTP middleware chain for the dev server
//   - pack: the pack engine writing outputs to disk or to a stream
//   - processor: the processor registry and builtin processors
//   - resolver: input name to file resolution across search roots
//   - server: the development server
//   - validation: URL and prefix checks
//   - version: build information
//
// # Data Flow
//
// The config Builder produces immutable Settings. The pack Engine parses each
// asset's specs through the asset Parser, which uses the resolver to locate
// inputs and the processor registry to check chains. Packing reads each
// input, runs its processor chain and joins the results with the extension's
// separator.
//
// # Concurrency
//
// Settings and the processor registry are read-only once built. Packing all
// assets runs in parallel up to the configured worker count, and writes to
// the same output path are serialized within the process.
package internal
