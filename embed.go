package folio

import "embed"

// EmbeddedAssets contains static assets shipped with folio: site.css.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
