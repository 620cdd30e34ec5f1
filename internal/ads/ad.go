package ads

// Advertisement represents one sponsored audio placement.
// Immutable; sourced from the external catalog per placement.
type Advertisement struct {
	ID         string
	AudioURI   string
	ClickURI   string // optional click-target
	Advertiser string
}

// Catalog returns the candidate ads for a placement.
// Owned by an external service; the engine only reads through it.
type Catalog interface {
	Ads(placement string) ([]Advertisement, error)
}

// CatalogFunc adapts a function to the Catalog interface.
type CatalogFunc func(placement string) ([]Advertisement, error)

func (f CatalogFunc) Ads(placement string) ([]Advertisement, error) {
	return f(placement)
}
