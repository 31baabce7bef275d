// Package cmd provides the command-line interface for assetpack.
//
// Configuration sources, highest priority first:
//  1. Command-line flags (--config, --output, --port, ...)
//  2. ASSETPACK_* environment variables (ASSETPACK_OUTPUT, ASSETPACK_SERVER_PORT, ...)
//  3. The configuration file: --config, ASSETPACK_CONFIG_FILE, or the first of
//     assetpack.yml, assetpack.yaml, assetpack.toml, assetpack.json in the
//     working directory
//
// # Commands
//
//   - pack: pack stale assets (or one asset) into the output directory
//   - serve: development server packing assets on every request
//   - list: show assets, their resolved inputs and processor chains
//   - collect: repack everything and copy outputs into a directory
//   - config: print the effective minimal configuration as yaml, toml or json
//   - check: report configuration warnings and missing inputs
//   - version: build information
//
// # Configuration
//
//	output: static/packed
//	search: [assets, node_modules]
//	prefix: /static/packed/
//	register:
//	  ts: esbuild --loader=ts
//	defaults:
//	  scss: [sass, rewrite]
//	assets:
//	  app.js:
//	    - ts:src/main.ts
//	    - vendor/jquery.js
//	  site.css:
//	    - scss/site.scss: [scss/_*.scss]
package cmd
