package setting

import (
	"encoding/json"
	"time"

	"github.com/runtime-config/runtime-config/internal/db/models"
)

// View is the wire form of a live setting.
type View struct {
	ID          uint64           `json:"id"`
	Name        string           `json:"name"`
	Value       *string          `json:"value"`
	ValueType   models.ValueType `json:"value_type"`
	Disabled    bool             `json:"disabled"`
	Scope       string           `json:"scope"`
	CreatedByID *uint64          `json:"created_by_id"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// HistoryView is the wire form of a history entry.
type HistoryView struct {
	ID          uint64           `json:"id"`
	SettingID   uint64           `json:"setting_id"`
	Name        string           `json:"name"`
	Value       *string          `json:"value"`
	ValueType   models.ValueType `json:"value_type"`
	Disabled    bool             `json:"disabled"`
	Scope       string           `json:"scope"`
	CreatedByID *uint64          `json:"created_by_id"`
	UpdatedAt   time.Time        `json:"updated_at"`
	IsDeleted   bool             `json:"is_deleted"`
	DeletedByID *uint64          `json:"deleted_by_id"`
}

// GetResponse is the body of a single setting lookup. ChangeHistory is null
// unless history was requested.
type GetResponse struct {
	Setting       View          `json:"setting"`
	ChangeHistory []HistoryView `json:"change_history"`
}

func newView(st *models.Setting) View {
	return View{
		ID:          st.ID,
		Name:        st.Name,
		Value:       st.Value,
		ValueType:   st.ValueType,
		Disabled:    st.Disabled,
		Scope:       st.Scope.Name,
		CreatedByID: st.CreatedByID,
		UpdatedAt:   st.UpdatedAt,
	}
}

func newViews(settings []models.Setting) []View {
	views := make([]View, 0, len(settings))
	for i := range settings {
		views = append(views, newView(&settings[i]))
	}

	return views
}

func newHistoryViews(entries []models.SettingHistory) []HistoryView {
	views := make([]HistoryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, HistoryView{
			ID:          e.ID,
			SettingID:   e.SettingID,
			Name:        e.Name,
			Value:       e.Value,
			ValueType:   e.ValueType,
			Disabled:    e.Disabled,
			Scope:       e.Scope.Name,
			CreatedByID: e.CreatedByID,
			UpdatedAt:   e.UpdatedAt,
			IsDeleted:   e.IsDeleted,
			DeletedByID: e.DeletedByID,
		})
	}

	return views
}

// optionalValue tells an explicit null apart from an absent field.
type optionalValue struct {
	Set   bool
	Value *string
}

func (o *optionalValue) UnmarshalJSON(b []byte) error {
	o.Set = true

	if string(b) == "null" {
		o.Value = nil
		return nil
	}

	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	o.Value = &v

	return nil
}
