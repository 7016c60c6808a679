package domain

// DefaultOrg is the organization whose repositories are aggregated unless configured otherwise.
const DefaultOrg = "beam-community"

// FallbackMemberCount is reported when the members lookup fails.
const FallbackMemberCount = 21

// excludedRepos lists operational and tooling repositories that are not shown on the site.
var excludedRepos = map[string]struct{}{
	"beam-community.org": {},
	"common-config":      {},
	"actions-sync":       {},
	"actions-pr-title":   {},
}

// IsExcluded reports whether the named repository is hidden from the project list.
func IsExcluded(name string) bool {
	_, ok := excludedRepos[name]
	return ok
}

func strPtr(s string) *string { return &s }

var fallbackProjects = []Project{
	{
		Name:        "ex_machina",
		Description: "Create test data for Elixir applications",
		Stars:       2041,
		Forks:       146,
		Language:    strPtr("Elixir"),
		Topics:      []string{"elixir", "testing"},
		URL:         "https://github.com/beam-community/ex_machina",
		Homepage:    strPtr("https://hex.pm/packages/ex_machina"),
		IsFeatured:  true,
	},
	{
		Name:        "bamboo",
		Description: "Testable, composable, and adapter based Elixir email library for devs that love piping",
		Stars:       1951,
		Forks:       344,
		Language:    strPtr("Elixir"),
		Topics:      []string{"elixir", "email"},
		URL:         "https://github.com/beam-community/bamboo",
		Homepage:    strPtr("https://hex.pm/packages/bamboo"),
		IsFeatured:  true,
	},
	{
		Name:        "elixir-companies",
		Description: "A list of companies currently using Elixir in production",
		Stars:       1663,
		Forks:       367,
		Language:    strPtr("Elixir"),
		Topics:      []string{"elixir"},
		URL:         "https://github.com/beam-community/elixir-companies",
		IsFeatured:  true,
	},
	{
		Name:        "stripity-stripe",
		Description: "An Elixir Library for Stripe",
		Stars:       990,
		Forks:       340,
		Language:    strPtr("Elixir"),
		Topics:      []string{"elixir", "stripe"},
		URL:         "https://github.com/beam-community/stripity-stripe",
		Homepage:    strPtr("https://hex.pm/packages/stripity_stripe"),
		IsFeatured:  true,
	},
	{
		Name:        "jsonapi",
		Description: "JSON:API Serializer and Query Handler for Elixir",
		Stars:       504,
		Forks:       158,
		Language:    strPtr("Elixir"),
		Topics:      []string{"elixir", "json-api"},
		URL:         "https://github.com/beam-community/jsonapi",
		Homepage:    strPtr("https://hex.pm/packages/jsonapi"),
		IsFeatured:  true,
	},
	{
		Name:        "avro_ex",
		Description: "An Avro Library that emphasizes testability and ease of use",
		Stars:       61,
		Forks:       25,
		Language:    strPtr("Elixir"),
		Topics:      []string{"elixir", "avro"},
		URL:         "https://github.com/beam-community/avro_ex",
		Homepage:    strPtr("https://hex.pm/packages/avro_ex"),
		IsFeatured:  true,
	},
	{
		Name:        "ueberauth",
		Description: "An Elixir Authentication System for Plug-based Web Applications",
		Stars:       51,
		Forks:       7,
		Language:    strPtr("Elixir"),
		Topics:      []string{"elixir", "authentication"},
		URL:         "https://github.com/beam-community/ueberauth",
		Homepage:    strPtr("https://hex.pm/packages/ueberauth"),
	},
	{
		Name:        "elixirschool",
		Description: "The premier destination for people looking to learn and master the Elixir programming language",
		Stars:       16,
		Forks:       4,
		Language:    strPtr("Elixir"),
		Topics:      []string{"elixir", "education"},
		URL:         "https://github.com/beam-community/elixirschool",
		Homepage:    strPtr("https://elixirschool.com"),
	},
}

// FallbackProjects returns a fresh copy of the static project list used when GitHub is unreachable.
func FallbackProjects() []Project {
	out := make([]Project, len(fallbackProjects))
	for i, p := range fallbackProjects {
		out[i] = p
		out[i].Topics = append([]string(nil), p.Topics...)
		if p.Language != nil {
			out[i].Language = strPtr(*p.Language)
		}
		if p.Homepage != nil {
			out[i].Homepage = strPtr(*p.Homepage)
		}
	}
	return out
}
