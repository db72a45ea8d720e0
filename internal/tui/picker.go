package tui

import (
	"github.com/charmbracelet/bubbles/list"

	"github.com/starford/ansuz/internal/models"
)

// docItem adapts a document to the list component.
type docItem struct {
	doc models.Document
}

func (i docItem) Title() string       { return i.doc.Title }
func (i docItem) Description() string { return i.doc.UpdatedAt.Format("2006-01-02 15:04") }
func (i docItem) FilterValue() string { return i.doc.Title }

func newPicker() list.Model {
	delegate := list.NewDefaultDelegate()
	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Documents"
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()
	return l
}

func docItems(docs []models.Document) []list.Item {
	items := make([]list.Item, len(docs))
	for i, d := range docs {
		items[i] = docItem{doc: d}
	}
	return items
}
