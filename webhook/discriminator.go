package webhook

// Discriminator classifies a request body by its fields.
type Discriminator interface {
	Match(v View) bool
}

// Envelope discriminators for the Events API.
var (
	// URLVerification matches the handshake Slack sends when the events URL
	// is configured.
	URLVerification = And(FieldEquals("type", "url_verification"), HasFields("challenge"))

	// MessageCallback matches an event callback wrapping a message event.
	MessageCallback = And(FieldEquals("type", "event_callback"), FieldEquals("event.type", "message"))

	// BotMessage matches a message event posted by a bot, including this one.
	BotMessage = Or(HasFields("event.bot_id"), FieldEquals("event.subtype", "bot_message"))
)

// HasFields returns a Discriminator that matches when all paths exist.
func HasFields(paths ...string) Discriminator {
	return hasFields{paths: paths}
}

type hasFields struct {
	paths []string
}

func (d hasFields) Match(v View) bool {
	for _, p := range d.paths {
		if !v.HasField(p) {
			return false
		}
	}
	return true
}

// FieldEquals returns a Discriminator that matches when the path holds the
// given string.
func FieldEquals(path, value string) Discriminator {
	return fieldEquals{path: path, value: value}
}

type fieldEquals struct {
	path  string
	value string
}

func (d fieldEquals) Match(v View) bool {
	s, ok := v.GetString(d.path)
	return ok && s == d.value
}

// And returns a Discriminator that matches when all discriminators match.
func And(ds ...Discriminator) Discriminator {
	return and{ds: ds}
}

type and struct {
	ds []Discriminator
}

func (d and) Match(v View) bool {
	for _, disc := range d.ds {
		if !disc.Match(v) {
			return false
		}
	}
	return true
}

// Or returns a Discriminator that matches when any discriminator matches.
func Or(ds ...Discriminator) Discriminator {
	return or{ds: ds}
}

type or struct {
	ds []Discriminator
}

func (d or) Match(v View) bool {
	for _, disc := range d.ds {
		if disc.Match(v) {
			return true
		}
	}
	return false
}

// Not returns a Discriminator that inverts d.
func Not(d Discriminator) Discriminator {
	return not{d: d}
}

type not struct {
	d Discriminator
}

func (d not) Match(v View) bool {
	return !d.d.Match(v)
}
