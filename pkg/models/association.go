package models

// AssociationType tags whether a relation is many-valued or single-valued.
type AssociationType string

const (
	AssociationCollection AssociationType = "collection"
	AssociationModel      AssociationType = "model"
)

// Association describes one declared relation of a model.
type Association struct {
	Alias      string          `json:"alias" mapstructure:"alias"`
	Type       AssociationType `json:"type" mapstructure:"type"`
	Model      string          `json:"model,omitempty" mapstructure:"model"`
	Collection string          `json:"collection,omitempty" mapstructure:"collection"`
	// Via names the field on the related record that points back to the parent.
	Via string `json:"via,omitempty" mapstructure:"via"`
	// Key is the field a bare scalar item is stored under, e.g. tags: [t1, t2].
	Key string `json:"key,omitempty" mapstructure:"key"`
}

// Target returns the name of the related model.
func (a Association) Target() string {
	if a.Model != "" {
		return a.Model
	}
	return a.Collection
}

// IsCollection reports whether the relation is materialized through add-to-collection.
func (a Association) IsCollection() bool {
	return a.Type == AssociationCollection
}

// ModelDefinition is the static schema a model exposes to the seeder.
type ModelDefinition struct {
	Identity     string        `json:"identity" mapstructure:"identity"`
	Associations []Association `json:"associations,omitempty" mapstructure:"associations"`
}

// Association returns the declared relation with the given alias.
func (d ModelDefinition) Association(alias string) (Association, bool) {
	for _, a := range d.Associations {
		if a.Alias == alias {
			return a, true
		}
	}
	return Association{}, false
}
