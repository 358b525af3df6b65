package fetch

import (
	"net/url"
	"regexp"
	"strings"
)

// Platform represents a known document host.
type Platform string

const (
	// PlatformGoogleDocs is Google Docs; documents are exported as plain text
	PlatformGoogleDocs Platform = "google_docs"
	// PlatformGoogleDrive is a Google Drive file link
	PlatformGoogleDrive Platform = "google_drive"
	// PlatformDropbox is a Dropbox share link
	PlatformDropbox Platform = "dropbox"
	// PlatformGitHub is a file view on GitHub
	PlatformGitHub Platform = "github"
	// PlatformUnknown is any other host
	PlatformUnknown Platform = "unknown"
)

var (
	googleDocID   = regexp.MustCompile(`^/document/d/([A-Za-z0-9_-]+)`)
	googleDriveID = regexp.MustCompile(`^/file/d/([A-Za-z0-9_-]+)`)
	githubBlob    = regexp.MustCompile(`^/([^/]+)/([^/]+)/blob/(.+)$`)
)

// DetectPlatform identifies the document host from a URL.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}

	host := strings.ToLower(parsed.Hostname())
	switch {
	case host == "docs.google.com" && googleDocID.MatchString(parsed.Path):
		return PlatformGoogleDocs
	case host == "drive.google.com" && googleDriveID.MatchString(parsed.Path):
		return PlatformGoogleDrive
	case host == "dropbox.com" || strings.HasSuffix(host, ".dropbox.com"):
		return PlatformDropbox
	case host == "github.com" && githubBlob.MatchString(parsed.Path):
		return PlatformGitHub
	default:
		return PlatformUnknown
	}
}

// DownloadURL rewrites share and viewer links into direct download links so
// the document itself is fetched rather than the host's viewer page.
func DownloadURL(urlStr string) string {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return urlStr
	}

	switch DetectPlatform(urlStr) {
	case PlatformGoogleDocs:
		id := googleDocID.FindStringSubmatch(parsed.Path)[1]
		return "https://docs.google.com/document/d/" + id + "/export?format=txt"
	case PlatformGoogleDrive:
		id := googleDriveID.FindStringSubmatch(parsed.Path)[1]
		return "https://drive.google.com/uc?export=download&id=" + id
	case PlatformDropbox:
		q := parsed.Query()
		q.Set("dl", "1")
		parsed.RawQuery = q.Encode()
		return parsed.String()
	case PlatformGitHub:
		m := githubBlob.FindStringSubmatch(parsed.Path)
		return "https://raw.githubusercontent.com/" + m[1] + "/" + m[2] + "/" + m[3]
	default:
		return urlStr
	}
}

// PlatformContentSelectors returns content selectors for HTML pages of a host.
func PlatformContentSelectors(platform Platform) []string {
	switch platform {
	case PlatformGitHub:
		return []string{"article.markdown-body", "#readme", "main"}
	default:
		return ResumePageSelectors()
	}
}

// PlatformNoiseSelectors returns noise exclusion selectors for a host.
func PlatformNoiseSelectors(platform Platform) []string {
	common := []string{
		"form",
		".social-share",
		".share-buttons",
		".cookie-consent",
		".gdpr-notice",
	}

	switch platform {
	case PlatformGitHub:
		return append(common, ".file-navigation", ".BorderGrid", ".js-header-wrapper")
	default:
		return common
	}
}
