package docmodel

// Doc is a parsed Doxygen comment split into optional sections.
// A nil field means the section is absent. A non-nil pointer to an empty
// slice means the section is present with no entries.
type Doc struct {
	Title        *string     `yaml:"title,omitempty" json:"title,omitempty"`
	Deprecated   *Deprecated `yaml:"deprecated,omitempty" json:"deprecated,omitempty"`
	Brief        *string     `yaml:"brief,omitempty" json:"brief,omitempty"`
	Description  *[]string   `yaml:"description,omitempty" json:"description,omitempty"`
	Warnings     *[]string   `yaml:"warnings,omitempty" json:"warnings,omitempty"`
	Returns      *[]string   `yaml:"returns,omitempty" json:"returns,omitempty"`
	Params       *[]Param    `yaml:"params,omitempty" json:"params,omitempty"`
	ReturnValues *[]string   `yaml:"return_values,omitempty" json:"return_values,omitempty"`
	Notes        *[]string   `yaml:"notes,omitempty" json:"notes,omitempty"`
	Todos        *[]string   `yaml:"todos,omitempty" json:"todos,omitempty"`
}

// Deprecated marks a symbol as deprecated, with an optional reason.
type Deprecated struct {
	Message *string `yaml:"message,omitempty" json:"message,omitempty"`
}

// Param is one documented argument.
type Param struct {
	ArgName     string  `yaml:"arg_name" json:"arg_name"`
	Direction   *string `yaml:"direction,omitempty" json:"direction,omitempty"` // in, out, in,out
	Description *string `yaml:"description,omitempty" json:"description,omitempty"`
}

// File is a model file on disk. ID may be empty, in which case the
// caller derives one from the file path.
type File struct {
	ID  string `yaml:"id,omitempty" json:"id,omitempty"`
	Doc Doc    `yaml:"doc" json:"doc"`
}

// Some returns a pointer to v. It keeps literal models short:
//
//	docmodel.Doc{Title: docmodel.Some("Foo")}
func Some[T any](v T) *T {
	return &v
}
