// Package pkg provides the core libraries of flowscript, a compiler from
// visual browser-automation flows to selenium-webdriver scripts.
//
// # Overview
//
// A flow is a graph of typed steps (navigate, click, type, wait, ...) joined
// by directed connections. The pkg directory is organized into three areas:
//
//  1. Compiler - [flow] (graph model and linearization), [script] (emitter
//     and assembler) and [document] (the persisted {nodes, edges} shape)
//  2. Editing and orchestration - [session] (exclusively owned editable
//     flows) and [pipeline] (compile, save, run, export, import, render)
//  3. Collaborators and infrastructure - [library], [runner], [render],
//     [cache], [config], [observability], [errors] and [buildinfo]
//
// # Architecture
//
// The data flow of a compile:
//
//	session.Session (edits)
//	         ↓
//	    [flow] Linearize (DFS from the start node)
//	         ↓
//	    [script] Emit + Assemble (fragments, preamble, headless toggle)
//	         ↓
//	    script text → [library] Store / [runner] Executor
//
// # Quick Start
//
//	s := session.New("Login flow")
//	nav, _ := s.AddNode(flow.KindNavigate, flow.Position{X: 250, Y: 150},
//	    flow.Params{URL: "https://example.com/login"})
//	s.Connect(flow.StartNodeID, nav.ID)
//
//	text, err := script.Generate(s.Graph(), script.Options{Headless: true})
//
// With collaborators configured, [pipeline.Runner] adds saving, running,
// exporting and rendering on top of the same compile.
package pkg
