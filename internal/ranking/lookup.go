package ranking

import "github.com/actuallystonmai/mate-recommendation-service/internal/domain"

// GameLookup maps a game's display description to its machine name and back.
// Order aggregates are keyed by machine name while themes are matched by description.
type GameLookup struct {
	nameByDescription map[string]string
	descriptionByName map[string]string
}

func NewGameLookup(games []domain.Game) GameLookup {
	l := GameLookup{
		nameByDescription: make(map[string]string, len(games)),
		descriptionByName: make(map[string]string, len(games)),
	}
	for _, g := range games {
		l.nameByDescription[g.Description] = g.Name
		l.descriptionByName[g.Name] = g.Description
	}
	return l
}

func (l GameLookup) NameFor(description string) (string, bool) {
	name, ok := l.nameByDescription[description]
	return name, ok
}

func (l GameLookup) DescriptionFor(name string) (string, bool) {
	description, ok := l.descriptionByName[name]
	return description, ok
}

// Names returns the machine names in the order the games were given.
func Names(games []domain.Game) []string {
	names := make([]string, 0, len(games))
	for _, g := range games {
		names = append(names, g.Name)
	}
	return names
}

// Descriptions returns the display descriptions in the order the games were given.
func Descriptions(games []domain.Game) []string {
	descriptions := make([]string, 0, len(games))
	for _, g := range games {
		descriptions = append(descriptions, g.Description)
	}
	return descriptions
}
