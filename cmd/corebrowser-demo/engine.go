package main

import (
	"github.com/fenwickbrowser/corebrowser/internal/core"
	"github.com/fenwickbrowser/corebrowser/internal/htmldom"
)

// buildEngine loads the configured fixture into the reference htmldom
// implementation and wires a core.Engine over it.
func buildEngine() (*core.Engine, error) {
	source, err := loadFixture(fixturePath)
	if err != nil {
		return nil, err
	}
	doc, err := htmldom.NewDocument(source, fixtureURL)
	if err != nil {
		return nil, err
	}
	win := htmldom.NewWindow(doc)
	return core.New(doc, win, newLogger()), nil
}
