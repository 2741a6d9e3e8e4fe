package core

// CanvasProps are the dimensions and category of the design being edited.
type CanvasProps struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Category string `json:"category"`
}

// CanvasPropsPatch is a shallow partial of CanvasProps. Values are not validated.
type CanvasPropsPatch struct {
	Width    *int
	Height   *int
	Category *string
}

// Apply returns p with every set field of patch copied over.
func (p CanvasProps) Apply(patch CanvasPropsPatch) CanvasProps {
	if patch.Width != nil {
		p.Width = *patch.Width
	}
	if patch.Height != nil {
		p.Height = *patch.Height
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	return p
}

// SelectedElement mirrors the rendered properties of the selected object.
type SelectedElement struct {
	ID    string     `json:"id"`
	Type  ObjectType `json:"type"`
	Props Patch      `json:"props"`
}

// Clone returns a copy that shares no pointers with e.
func (e *SelectedElement) Clone() *SelectedElement {
	if e == nil {
		return nil
	}
	c := &SelectedElement{ID: e.ID, Type: e.Type}
	c.Props = Patch{}.Merge(e.Props)
	return c
}
