package web

import "embed"

// TemplatesFS holds the page and the HTMX partials.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds the stylesheet and the page script.
//
//go:embed static/*
var StaticFS embed.FS
