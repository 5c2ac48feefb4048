package market

import "github.com/dmitrijs2005/tarkovsync/internal/models"

// rawMarker mirrors one record of the decoded markers payload. Optional
// fields stay pointers here and are resolved into explicit model fields once.
type rawMarker struct {
	UID         string            `json:"uid"`
	Name        string            `json:"name"`
	NameL10N    map[string]string `json:"name_l10n"`
	Category    string            `json:"category"`
	SubCategory string            `json:"subCategory"`
	Desc        string            `json:"desc"`
	DescL10N    map[string]string `json:"desc_l10n"`
	Geometry    *rawGeometry      `json:"geometry"`
	Level       *int              `json:"level"`
	QuestUID    *string           `json:"questUid"`
	ItemsUID    []string          `json:"itemsUid"`
	Imgs        []rawImage        `json:"imgs"`
	Updated     string            `json:"updated"`
}

type rawGeometry struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type rawImage struct {
	Img  string `json:"img"`
	Name string `json:"name"`
	Desc string `json:"desc"`
}

// toModel resolves the raw record into a typed Marker. Records without
// geometry carry no usable position and are dropped (ok=false).
func (r rawMarker) toModel(mapName string) (models.Marker, bool) {
	if r.Geometry == nil {
		return models.Marker{}, false
	}

	images := make([]models.MarkerImage, 0, len(r.Imgs))
	for i, img := range r.Imgs {
		images = append(images, models.MarkerImage{
			URL:          img.Img,
			Name:         img.Name,
			Description:  img.Desc,
			DisplayOrder: i,
		})
	}

	questUID := r.QuestUID
	if questUID != nil && *questUID == "" {
		questUID = nil
	}

	return models.Marker{
		UID:           r.UID,
		Map:           mapName,
		Category:      r.Category,
		SubCategory:   r.SubCategory,
		Name:          r.Name,
		NameKO:        r.NameL10N["ko"],
		NameRU:        r.NameL10N["ru"],
		Description:   r.Desc,
		DescriptionKO: r.DescL10N["ko"],
		Position:      models.Position{X: r.Geometry.X, Y: r.Geometry.Y},
		Level:         r.Level,
		QuestUID:      questUID,
		ItemsUID:      r.ItemsUID,
		Images:        images,
		Updated:       r.Updated,
	}, true
}

// rawQuest mirrors one record of the decoded quests payload.
type rawQuest struct {
	UID              string   `json:"uid"`
	BsgID            string   `json:"bsgId"`
	Name             string   `json:"name"`
	RuName           string   `json:"ruName"`
	Trader           string   `json:"trader"`
	Type             string   `json:"type"`
	WikiURL          string   `json:"wikiUrl"`
	ReqLevel         *int     `json:"reqLevel"`
	ReqLL            *int     `json:"reqLL"`
	ReqRep           *float64 `json:"reqRep"`
	RequiredForKappa bool     `json:"requiredForKappa"`
	Active           *bool    `json:"active"`
	EnObjectives     []string `json:"enObjectives"`
	RuObjectives     []string `json:"ruObjectives"`
	Updated          string   `json:"updated"`
}

func (r rawQuest) toModel() models.Quest {
	// active defaults to true when the source omits it
	active := true
	if r.Active != nil {
		active = *r.Active
	}

	return models.Quest{
		UID:                  r.UID,
		BsgID:                r.BsgID,
		Name:                 r.Name,
		NameRU:               r.RuName,
		Trader:               r.Trader,
		Type:                 r.Type,
		WikiURL:              r.WikiURL,
		RequiredLevel:        r.ReqLevel,
		RequiredLoyaltyLevel: r.ReqLL,
		RequiredReputation:   r.ReqRep,
		RequiredForKappa:     r.RequiredForKappa,
		Active:               active,
		ObjectivesEN:         r.EnObjectives,
		ObjectivesRU:         r.RuObjectives,
		Updated:              r.Updated,
	}
}
