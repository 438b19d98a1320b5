// Package treetags provides control-flow tags (if, choose, forEach)
// for view templates along with the state reconciliation that keeps
// component ids stable from one request to the next.
//
// The core code is in package 'core'.  Package 'view' runs templates
// through the request lifecycle, 'storage' keeps view state between
// requests, and some command-line tools are in `cmd`.
package treetags
