package renderer

// profile is one supported browser-engine variant. The two variants
// differ in which binaries are probed and which User-Agent is presented.
type profile struct {
	name      string
	userAgent string
	binaries  []string
}

var profiles = map[string]profile{
	"chrome": {
		name: "chrome",
		userAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
			"(KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
		binaries: []string{"google-chrome-stable", "google-chrome"},
	},
	"chromium": {
		name: "chromium",
		userAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
			"(KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
		binaries: []string{"chromium", "chromium-browser"},
	},
}

// profileFor resolves an engine name to a profile, defaulting to chrome
// for anything unrecognized.
func profileFor(engine string) profile {
	if p, ok := profiles[engine]; ok {
		return p
	}
	return profiles["chrome"]
}
