package acoustid

// Recording is a recording in MusicBrainz shape, built from an AcoustID node.
type Recording struct {
	ID            string         `json:"id"`
	Title         string         `json:"title,omitempty"`
	ArtistCredits []ArtistCredit `json:"artist_credit,omitempty"`
	Releases      []Release      `json:"releases,omitempty"`
	// Length is in milliseconds; zero when the service did not report a duration.
	Length  int `json:"length,omitempty"`
	Sources int `json:"sources"`
}

type ArtistCredit struct {
	ArtistID   string `json:"artist_id"`
	Name       string `json:"name"`
	SortName   string `json:"sort_name"`
	JoinPhrase string `json:"join_phrase,omitempty"`
}

type Release struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	ReleaseGroup ReleaseGroup `json:"release_group"`
	Country      string       `json:"country,omitempty"`
	Date         string       `json:"date,omitempty"`
	MediumCount  int          `json:"medium_count,omitempty"`
	TrackCount   int          `json:"track_count,omitempty"`
	Media        []Medium     `json:"media"`
}

type ReleaseGroup struct {
	ID             string   `json:"id"`
	Title          string   `json:"title,omitempty"`
	PrimaryType    string   `json:"primary_type,omitempty"`
	SecondaryTypes []string `json:"secondary_types,omitempty"`
}

type Medium struct {
	Format     string `json:"format,omitempty"`
	Position   int    `json:"position,omitempty"`
	TrackCount int    `json:"track_count,omitempty"`
	// Track is the first track the service linked on this medium.
	Track *Track `json:"track,omitempty"`
}

type Track struct {
	ID       string `json:"id"`
	Position int    `json:"position,omitempty"`
	Title    string `json:"title,omitempty"`
}

// Artist returns the name of the first credited artist.
func (r Recording) Artist() string {
	if len(r.ArtistCredits) == 0 {
		return ""
	}
	return r.ArtistCredits[0].Name
}

// ArtistCreditString joins every credit with its join phrase.
func (r Recording) ArtistCreditString() string {
	var out string
	for _, credit := range r.ArtistCredits {
		out += credit.JoinPhrase + credit.Name
	}
	return out
}

// ParseRecording converts a service recording node. ok is false for nodes
// without an id, which carry no metadata.
func ParseRecording(raw RawRecording) (Recording, bool) {
	if raw.ID == "" {
		return Recording{}, false
	}
	rec := Recording{
		ID:      raw.ID,
		Title:   raw.Title,
		Sources: raw.SourceCount(),
	}
	for i, artist := range raw.Artists {
		credit := ArtistCredit{ArtistID: artist.ID, Name: artist.Name, SortName: artist.Name}
		if i > 0 {
			credit.JoinPhrase = "; "
		}
		rec.ArtistCredits = append(rec.ArtistCredits, credit)
	}
	if raw.ReleaseGroups != nil {
		rec.Releases = releasesFrom(raw.ReleaseGroups)
	}
	if raw.Duration != nil {
		rec.Length = int(*raw.Duration) * 1000
	}
	return rec, true
}

// releasesFrom flattens release groups into releases. A release with release
// events yields one entry per event, each carrying that event's country and date.
func releasesFrom(groups []RawReleaseGroup) []Release {
	out := make([]Release, 0, len(groups))
	for _, group := range groups {
		for _, raw := range group.Releases {
			release := Release{
				ID: raw.ID,
				ReleaseGroup: ReleaseGroup{
					ID:             group.ID,
					Title:          group.Title,
					PrimaryType:    group.Type,
					SecondaryTypes: group.SecondaryTypes,
				},
				Title:       group.Title,
				Country:     raw.Country,
				Date:        raw.Date.String(),
				MediumCount: raw.MediumCount,
				TrackCount:  raw.TrackCount,
				Media:       make([]Medium, 0, len(raw.Mediums)),
			}
			if raw.Title != nil {
				release.Title = *raw.Title
			}
			for _, medium := range raw.Mediums {
				m := Medium{Format: medium.Format, Position: medium.Position, TrackCount: medium.TrackCount}
				if len(medium.Tracks) > 0 {
					track := Track(medium.Tracks[0])
					m.Track = &track
				}
				release.Media = append(release.Media, m)
			}

			if len(raw.ReleaseEvents) == 0 {
				out = append(out, release)
				continue
			}
			for _, event := range raw.ReleaseEvents {
				perEvent := release
				perEvent.Country = event.Country
				perEvent.Date = event.Date.String()
				out = append(out, perEvent)
			}
		}
	}
	return out
}
