package dto

// Google Places (legacy web service) payloads. Only the fields the importer reads are mapped.

type PlacesSearchResponse struct {
	Status        string        `json:"status"`
	ErrorMessage  string        `json:"error_message,omitempty"`
	NextPageToken string        `json:"next_page_token,omitempty"`
	Results       []PlaceResult `json:"results"`
}

type PlaceResult struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formatted_address"`
	Rating           float64  `json:"rating"`
	UserRatingsTotal int      `json:"user_ratings_total"`
	PriceLevel       int      `json:"price_level"`
	Types            []string `json:"types"`
	Geometry         struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	BusinessStatus string `json:"business_status"`
}

type PlaceDetailsResponse struct {
	Status       string       `json:"status"`
	ErrorMessage string       `json:"error_message,omitempty"`
	Result       PlaceDetails `json:"result"`
}

type PlaceDetails struct {
	PlaceID           string             `json:"place_id"`
	Name              string             `json:"name"`
	Website           string             `json:"website"`
	Rating            float64            `json:"rating"`
	UserRatingsTotal  int                `json:"user_ratings_total"`
	PriceLevel        int                `json:"price_level"`
	AddressComponents []AddressComponent `json:"address_components"`
	Geometry          struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	Reviews []PlaceReview `json:"reviews"`
}

type AddressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

type PlaceReview struct {
	AuthorName string  `json:"author_name"`
	Rating     float64 `json:"rating"`
	Text       string  `json:"text"`
	Language   string  `json:"language"`
	Time       int64   `json:"time"`
}

// Component returns the short and long name of the first component of the given type.
func (d *PlaceDetails) Component(kind string) (short, long string) {
	for _, c := range d.AddressComponents {
		for _, t := range c.Types {
			if t == kind {
				return c.ShortName, c.LongName
			}
		}
	}
	return "", ""
}
