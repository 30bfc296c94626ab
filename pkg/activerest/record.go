package activerest

// Record is the model-instance capability consumed by Query: an attribute
// bag with identity and field-level validation errors. Population copies
// the primary-key attribute into the identity slot via SetID.
type Record interface {
	// Attributes returns the attribute mapping.
	Attributes() map[string]interface{}

	// SetAttributes merges the given attributes into the record.
	SetAttributes(attrs map[string]interface{})

	// Attribute returns a single attribute value, or nil when absent.
	Attribute(name string) interface{}

	// ID returns the record's identity value, or nil when unset.
	ID() interface{}

	// SetID sets the record's identity value.
	SetID(id interface{})

	// AddError records a field-level validation error.
	AddError(field, message string)

	// Errors returns all recorded validation errors by field.
	Errors() map[string][]string

	// HasErrors reports whether any validation error was recorded.
	HasErrors() bool
}

// Model is the default Record implementation.
type Model struct {
	attrs map[string]interface{}
	id    interface{}
	errs  map[string][]string
}

// NewModel creates an empty model.
func NewModel() *Model {
	return &Model{
		attrs: make(map[string]interface{}),
	}
}

// NewModelWith creates a model pre-populated with attributes.
func NewModelWith(attrs map[string]interface{}) *Model {
	model := NewModel()
	model.SetAttributes(attrs)

	return model
}

// Attributes implements Record.Attributes.
func (m *Model) Attributes() map[string]interface{} {
	return m.attrs
}

// SetAttributes implements Record.SetAttributes.
func (m *Model) SetAttributes(attrs map[string]interface{}) {
	if m.attrs == nil {
		m.attrs = make(map[string]interface{}, len(attrs))
	}

	for name, value := range attrs {
		m.attrs[name] = value
	}
}

// Attribute implements Record.Attribute.
func (m *Model) Attribute(name string) interface{} {
	return m.attrs[name]
}

// SetAttribute sets a single attribute value.
func (m *Model) SetAttribute(name string, value interface{}) {
	if m.attrs == nil {
		m.attrs = make(map[string]interface{})
	}

	m.attrs[name] = value
}

// ID implements Record.ID.
func (m *Model) ID() interface{} {
	return m.id
}

// SetID implements Record.SetID.
func (m *Model) SetID(id interface{}) {
	m.id = id
}

// AddError implements Record.AddError.
func (m *Model) AddError(field, message string) {
	if m.errs == nil {
		m.errs = make(map[string][]string)
	}

	m.errs[field] = append(m.errs[field], message)
}

// Errors implements Record.Errors.
func (m *Model) Errors() map[string][]string {
	return m.errs
}

// HasErrors implements Record.HasErrors.
func (m *Model) HasErrors() bool {
	return len(m.errs) > 0
}
