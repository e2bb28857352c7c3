package profile

import (
	"os"
	"path/filepath"

	"github.com/hearthdesk/hearth/backend/internal/infrastructure/logging"
	"go.uber.org/zap"
)

// visibilityNudge is the recovery script used by apps whose first
// render lands invisible or zero-sized inside an embedded surface.
const visibilityNudge = `(function() {
  var root = document.getElementById('root') || document.getElementById('app') || document.body;
  if (!root) return;
  root.style.visibility = 'visible';
  root.style.opacity = '1';
  if (root.offsetHeight === 0) {
    root.style.minHeight = '100vh';
  }
  window.dispatchEvent(new Event('resize'));
})();`

// SeedBuiltins registers the bundled mini-app catalog. Disk-loaded
// profiles registered afterwards override these entries.
func SeedBuiltins(reg *Registry, log *logging.Logger) error {
	if log == nil {
		log = logging.NewNop()
	}
	builtins := builtinCatalog()
	for _, p := range builtins {
		if err := reg.Register(p); err != nil {
			return err
		}
	}
	log.Info("Seeded built-in mini-app profiles", zap.Int("count", len(builtins)))
	return nil
}

func builtinCatalog() []Profile {
	boltIndex := filepath.Join(localAppDir(), "bolt.diy", "index.html")

	bolt := New()
	bolt.ID = "bolt.diy"
	bolt.Name = "bolt.diy"
	bolt.CandidateURLs = []string{
		"file://" + boltIndex,
		"http://localhost:5173",
	}
	bolt.Load.PreferFileURLs = true
	bolt.Load.LoadBlankFirst = true
	bolt.Load.VisibilityScript = visibilityNudge
	bolt.Load.PeriodicVisibilityCheck = true
	bolt.Load.VisibilityIntervalMS = 2000
	bolt.Load.InjectCSS = "body { background: #0d1117; }"
	bolt.Layout.BackgroundColor = "#0d1117"
	bolt.Navigation.HandleNavigation = true
	bolt.Navigation.ExternalPatterns = []string{
		"https://github.com/**",
		"https://*.github.com/**",
	}
	bolt.Navigation.InternalPatterns = []string{
		"http://localhost:5173/**",
		"file://**",
	}

	chatgpt := New()
	chatgpt.ID = "chatgpt"
	chatgpt.Name = "ChatGPT"
	chatgpt.CandidateURLs = []string{"https://chatgpt.com"}
	chatgpt.Load.UserAgent = desktopUA
	chatgpt.Navigation.HandleNavigation = true
	chatgpt.Navigation.ExternalPatterns = []string{
		"https://openai.com/**",
		"https://help.openai.com/**",
	}
	chatgpt.Navigation.InternalPatterns = []string{
		"https://chatgpt.com/**",
		"https://auth.openai.com/**",
		"https://*.oaiusercontent.com/**",
	}
	chatgpt.Layout.CenterContent = true
	chatgpt.Layout.MaxContentWidth = 1200

	claude := New()
	claude.ID = "claude"
	claude.Name = "Claude"
	claude.CandidateURLs = []string{"https://claude.ai"}
	claude.Load.UserAgent = desktopUA
	claude.Navigation.HandleNavigation = true
	claude.Navigation.ExternalPatterns = []string{
		"https://www.anthropic.com/**",
		"https://support.claude.com/**",
	}
	claude.Navigation.InternalPatterns = []string{
		"https://claude.ai/**",
	}

	gemini := New()
	gemini.ID = "gemini"
	gemini.Name = "Gemini"
	gemini.CandidateURLs = []string{"https://gemini.google.com"}
	gemini.Load.UserAgent = desktopUA
	gemini.Navigation.HandleNavigation = true
	gemini.Navigation.ExternalPatterns = []string{
		"https://support.google.com/**",
	}
	gemini.Navigation.InternalPatterns = []string{
		"https://gemini.google.com/**",
		"https://accounts.google.com/**",
	}

	perplexity := New()
	perplexity.ID = "perplexity"
	perplexity.Name = "Perplexity"
	perplexity.CandidateURLs = []string{"https://www.perplexity.ai"}
	perplexity.Load.UserAgent = desktopUA
	perplexity.Load.VisibilityScript = visibilityNudge
	perplexity.Navigation.HandleNavigation = true
	perplexity.Navigation.InternalPatterns = []string{
		"https://www.perplexity.ai/**",
		"https://perplexity.ai/**",
	}

	openWebUI := New()
	openWebUI.ID = "open-webui"
	openWebUI.Name = "Open WebUI"
	openWebUI.CandidateURLs = []string{
		"http://localhost:8080",
		"http://localhost:3000",
	}
	openWebUI.Surface.AllowInsecureContent = true
	openWebUI.Load.LoadBlankFirst = true
	openWebUI.Navigation.HandleNavigation = false

	return []Profile{bolt, chatgpt, claude, gemini, perplexity, openWebUI}
}

// desktopUA masks the embedded surface as a regular desktop browser;
// several chat frontends gate features on the reported browser.
const desktopUA = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

func localAppDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "hearth", "apps")
	}
	return filepath.Join(os.TempDir(), "hearth", "apps")
}
