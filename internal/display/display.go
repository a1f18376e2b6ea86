// Package display is the page/label sink the node renders into. The node
// composes ordered text lines; layout beyond line ordering belongs to the
// implementation behind these interfaces.
package display

// Display opens and clears render surfaces. Pages exist only while the
// owning app is in the foreground.
type Display interface {
	// OpenPage allocates a page with an infobar title and status line.
	OpenPage(title, status string) (Page, error)
	// Clear wipes the whole display surface.
	Clear()
}

// Page is one allocated render surface.
type Page interface {
	// CreateLabel adds an empty text label to the page.
	CreateLabel() Label
	// Close releases the page and every label on it.
	Close()
}

// Label is a single line of text on a page.
type Label interface {
	SetText(s string)
	SetPosition(x, y int)
	Delete()
}
