// Package fynepicker shows a native open-file dialog with fyne.
package fynepicker

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"

	"github.com/leeovery/sndedup/internal/picker"
	"github.com/leeovery/sndedup/internal/tableio"
)

// AppID identifies the fyne application.
const AppID = "com.leeovery.sndedup"

// Dialog is a picker.Picker backed by a fyne file-open dialog. It must be
// called from the main goroutine and only once per process.
type Dialog struct {
	Title string
}

// RequestFilePath opens the dialog and blocks until the user picks a file
// or dismisses it.
func (d Dialog) RequestFilePath(filters []tableio.Filter) (string, error) {
	title := d.Title
	if title == "" {
		title = "Select the Excel file to clean"
	}

	a := app.NewWithID(AppID)
	win := a.NewWindow(title)
	win.Resize(fyne.NewSize(800, 600))

	var (
		path    string
		pickErr error
	)
	fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		defer a.Quit()
		if err != nil {
			pickErr = fmt.Errorf("file dialog: %w", err)
			return
		}
		if rc == nil {
			return
		}
		defer rc.Close()
		path = rc.URI().Path()
	}, win)
	if exts := picker.Extensions(filters); len(exts) > 0 {
		fd.SetFilter(storage.NewExtensionFileFilter(exts))
	}
	win.SetOnClosed(a.Quit)
	fd.Show()
	win.ShowAndRun()

	if pickErr != nil {
		return "", pickErr
	}
	if path == "" {
		return "", picker.ErrCancelled
	}
	return path, nil
}
