package catalog

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/iliyamo/studio-slot-reservation/internal/model"
)

// fileHours is the on-disk form of an opening-hours rule.
type fileHours struct {
	Open  string `mapstructure:"open"`
	Close string `mapstructure:"close"`
}

type fileVenue struct {
	ID           string    `mapstructure:"id"`
	Name         string    `mapstructure:"name"`
	Areas        []string  `mapstructure:"areas"`
	WeekdayHours fileHours `mapstructure:"weekday_hours"`
	WeekendHours fileHours `mapstructure:"weekend_hours"`
}

type fileMember struct {
	Phone   string `mapstructure:"phone"`
	Name    string `mapstructure:"name"`
	Admin   bool   `mapstructure:"admin"`
	PinHash string `mapstructure:"pin_hash"`
}

type fileCatalog struct {
	Venues  []fileVenue  `mapstructure:"venues"`
	Members []fileMember `mapstructure:"members"`
}

// LoadFile reads the venue catalog and member roster from a YAML, JSON
// or TOML file.  The format is taken from the file extension.
func LoadFile(path string) (*Catalog, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	var fc fileCatalog
	if err := v.Unmarshal(&fc); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	venues := make([]model.Venue, 0, len(fc.Venues))
	for _, fv := range fc.Venues {
		weekday, err := parseHours(fv.WeekdayHours)
		if err != nil {
			return nil, fmt.Errorf("venue %q weekday_hours: %w", fv.ID, err)
		}
		weekend, err := parseHours(fv.WeekendHours)
		if err != nil {
			return nil, fmt.Errorf("venue %q weekend_hours: %w", fv.ID, err)
		}
		venues = append(venues, model.Venue{
			ID:    fv.ID,
			Name:  fv.Name,
			Areas: fv.Areas,
			Hours: model.OpeningHours{Weekday: weekday, Weekend: weekend},
		})
	}
	members := make([]model.Member, 0, len(fc.Members))
	for _, fm := range fc.Members {
		members = append(members, model.Member{
			Identity: fm.Phone,
			Name:     fm.Name,
			IsAdmin:  fm.Admin,
			PinHash:  fm.PinHash,
		})
	}
	return New(venues, members)
}

func parseHours(h fileHours) (model.HoursRule, error) {
	open, err := ParseSlotLabel(h.Open)
	if err != nil {
		return model.HoursRule{}, err
	}
	// 24:00 is a valid closing time but not a valid HH:MM for time.Parse.
	if h.Close == "24:00" {
		return model.HoursRule{Open: open, Close: 24 * 60}, nil
	}
	closing, err := ParseSlotLabel(h.Close)
	if err != nil {
		return model.HoursRule{}, err
	}
	return model.HoursRule{Open: open, Close: closing}, nil
}
