package trigger

// PublicationPolicy selects which publication paths a pipeline run performs.
// Both pipelines share the same build and packaging logic; the policy is the
// only difference between a continuous build and a tagged release.
type PublicationPolicy string

const (
	// PolicyTransient uploads artifacts to run-scoped storage only.
	PolicyTransient PublicationPolicy = "transient"

	// PolicyTransientAndRelease additionally attaches the artifacts to a
	// permanent release keyed by the triggering tag.
	PolicyTransientAndRelease PublicationPolicy = "transient+release"
)

// String returns the string representation of the PublicationPolicy.
func (p PublicationPolicy) String() string {
	return string(p)
}

// Plan is the routing decision for a validated event: which platforms build
// and how their artifacts are published. Platform jobs run independently and
// in parallel.
type Plan struct {
	// Event is the validated triggering event.
	Event Event

	// Policy selects the publication paths.
	Policy PublicationPolicy

	// Platforms lists the platform jobs to run, by canonical name.
	Platforms []string
}

// DefaultPlatforms is the fixed platform set built on every run.
var DefaultPlatforms = []string{"linux", "windows"}

// Route validates the event and produces the pipeline plan for it.
// Tag events select the release policy; pushes and pull requests select
// transient-only publication. All platforms build regardless of the trigger.
func Route(event Event) (*Plan, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}

	policy := PolicyTransient
	if event.IsRelease() {
		policy = PolicyTransientAndRelease
	}

	return &Plan{
		Event:     event,
		Policy:    policy,
		Platforms: append([]string(nil), DefaultPlatforms...),
	}, nil
}
