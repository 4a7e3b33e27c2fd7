package cors

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Config mirrors the shape of gin-contrib/cors for a plain net/http stack.
type Config struct {
	AllowOrigins    []string
	AllowAllOrigins bool
	AllowMethods    []string
	AllowHeaders    []string
	ExposeHeaders   []string
	MaxAge          time.Duration
}

// DefaultConfig allows the given origins; "*" among them allows any origin.
func DefaultConfig(origins []string) Config {
	return Config{
		AllowOrigins:    origins,
		AllowAllOrigins: slices.Contains(origins, "*"),
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders:   []string{"X-Request-ID", "Retry-After"},
		MaxAge:          12 * time.Hour,
	}
}

type Policy struct {
	config        Config
	allowMethods  string
	allowHeaders  string
	exposeHeaders string
	maxAge        string
}

func New(config Config) *Policy {
	return &Policy{
		config:        config,
		allowMethods:  strings.Join(config.AllowMethods, ", "),
		allowHeaders:  strings.Join(config.AllowHeaders, ", "),
		exposeHeaders: strings.Join(config.ExposeHeaders, ", "),
		maxAge:        strconv.Itoa(int(config.MaxAge / time.Second)),
	}
}

// Allowed reports whether origin may call the API.
func (p *Policy) Allowed(origin string) bool {
	if p.config.AllowAllOrigins {
		return true
	}
	origin = strings.TrimSuffix(origin, "/")
	for _, o := range p.config.AllowOrigins {
		if strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// Middleware applies the policy. Requests without an Origin header are not
// cross-origin and pass untouched. onReject renders the refusal of a
// disallowed origin.
func (p *Policy) Middleware(onReject func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Add("Vary", "Origin")

			if !p.Allowed(origin) {
				if onReject != nil {
					onReject(w, r)
				} else {
					http.Error(w, "origin not allowed", http.StatusForbidden)
				}
				return
			}

			if p.config.AllowAllOrigins {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", origin)
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Add("Vary", "Access-Control-Request-Method")
				h.Add("Vary", "Access-Control-Request-Headers")
				h.Set("Access-Control-Allow-Methods", p.allowMethods)
				h.Set("Access-Control-Allow-Headers", p.allowHeaders)
				if p.config.MaxAge > 0 {
					h.Set("Access-Control-Max-Age", p.maxAge)
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			if p.exposeHeaders != "" {
				h.Set("Access-Control-Expose-Headers", p.exposeHeaders)
			}
			next.ServeHTTP(w, r)
		})
	}
}
