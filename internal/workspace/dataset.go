package workspace

import "time"

// Dataset holds metadata for a source file stored in the workspace.
type Dataset struct {
	ID      string    `json:"id" yaml:"id"`
	Name    string    `json:"name" yaml:"name"`
	Path    string    `json:"path" yaml:"path"`
	Size    int64     `json:"size" yaml:"size"`
	Rows    int       `json:"rows" yaml:"rows"`
	Columns int       `json:"columns" yaml:"columns"`
	AddedAt time.Time `json:"added_at" yaml:"added_at"`
}
