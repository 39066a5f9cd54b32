// Package document converts flows to and from their persisted form.
//
// # Format
//
// A document has two required top-level arrays. Field names match the files
// exported by the browser editor, so those import unchanged:
//
//	{
//	  "nodes": [
//	    {"id": "start-node", "type": "start", "position": {"x": 250, "y": 50}, "data": {"label": "Start"}},
//	    {"id": "navigate-1", "type": "navigate", "position": {"x": 250, "y": 150},
//	     "data": {"label": "Navigate", "url": "https://x.test"}}
//	  ],
//	  "edges": [
//	    {"id": "edge-start-node-navigate-1", "source": "start-node", "target": "navigate-1"}
//	  ]
//	}
//
// Node data keys: label, url, selector, value, code, elementType ("element" or
// "time"), wait (milliseconds) and timeout (milliseconds). Unknown keys, such
// as the canvas' width, height or selected flags, are ignored.
//
// # Validation
//
// [Import] and the decoding functions reject a document whose nodes or edges
// array is missing, whose node ids are empty or duplicated, whose node types
// are outside the catalog, or whose edges reference unknown nodes. Every such
// failure is an INVALID_DOCUMENT error and no graph is returned, so callers can
// keep their current graph untouched.
//
// # Formats
//
// JSON is the default. YAML is supported for hand-written flows and is chosen
// by file extension (.yaml, .yml) in [WriteFile] and [ReadFile].
//
// Documents carry only declarative state. Editor wiring such as per-node change
// handlers is reattached by pkg/session after import.
package document
