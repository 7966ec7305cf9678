// Package internal contains the implementation packages of sunnysite, the
// generator and development server for the Apache Sunny website.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - site: The site configuration record, its defaults, YAML overlay,
//     validation and export in the generator's document shape
//   - features: The homepage feature list and its renderer
//   - views: Page composition: layout, navbar, footer, homepage and 404
//   - content: Discovery of documentation pages and blog posts
//   - build: The build pipeline: pages, assets, sitemap and manifest
//   - linkcheck: Internal link resolution under the broken link policies
//   - accessibility: An optional audit of generated pages
//   - server: The development server with live reload and error overlay
//   - middleware: HTTP middleware for the development server
//   - watcher: File system monitoring with debouncing
//   - config: Tool configuration from files, environment and flags
//   - errors: Issue collection, typed errors and the error overlay
//   - logging: Structured logging
//   - monitoring: Prometheus metrics and health checks
//   - validation: Shared validation results and URL and path checks
//   - version: Build and version information
//
// # Build Flow
//
// A build loads the tool configuration and the site configuration, renders
// the homepage and 404 page, copies static assets, writes the sitemap,
// robots.txt and exported configuration, and link checks every rendered
// page. The development server runs the same build on every change and
// tells connected browsers to reload, or shows the issues of a failed build
// in an overlay.
package internal
