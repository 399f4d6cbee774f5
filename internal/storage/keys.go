package storage

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Object key layout:
//
//	avatars/{userKey}/{main|side1|side2}
//	generations/{userKey}/{slug}-{YYYY-MM-DD}-{rand}.png
//	feed-styles/{unix-ts}-{filename}
//
// The user key is the account email, matching what the frontend links to.

const (
	avatarsRoot     = "avatars"
	generationsRoot = "generations"
	feedStylesRoot  = "feed-styles"
)

// Reference slot names within an avatar folder.
const (
	AvatarMain  = "main"
	AvatarSide1 = "side1"
	AvatarSide2 = "side2"
)

var (
	nonAlnum       = regexp.MustCompile(`[^a-z0-9]+`)
	unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9.-]`)
)

// AvatarPrefix returns the reference-photo folder for a user.
func AvatarPrefix(userKey string) string {
	return avatarsRoot + "/" + userKey + "/"
}

// AvatarKey returns the deterministic key for one reference slot.
func AvatarKey(userKey, slot string) string {
	return avatarsRoot + "/" + userKey + "/" + slot
}

// GenerationPrefix returns the generated-image folder for a user.
func GenerationPrefix(userKey string) string {
	return generationsRoot + "/" + userKey + "/"
}

// GenerationKey builds a human-legible, effectively-unique key for a generated
// image. The random suffix makes collision checks unnecessary; the title is
// slugged for the key only and stored verbatim in the metadata row.
func GenerationKey(userKey, title string, now time.Time) string {
	return fmt.Sprintf("%s/%s/%s-%s-%s.png",
		generationsRoot, userKey, SlugTitle(title), now.UTC().Format("2006-01-02"), shortSuffix())
}

// FeedStyleKey builds the storage key for a curated style preview upload.
func FeedStyleKey(filename string, now time.Time) string {
	return fmt.Sprintf("%s/%d-%s", feedStylesRoot, now.UnixMilli(), SanitizeFilename(filename))
}

// SlugTitle lowercases a title and collapses every non-alphanumeric run into
// a single underscore. Empty input falls back to "generation".
func SlugTitle(title string) string {
	slug := strings.Trim(nonAlnum.ReplaceAllString(strings.ToLower(title), "_"), "_")
	if slug == "" {
		return "generation"
	}
	return slug
}

// SanitizeFilename replaces characters unsafe in object keys with underscores.
func SanitizeFilename(name string) string {
	clean := unsafeFilename.ReplaceAllString(name, "_")
	if clean == "" {
		return "upload"
	}
	return clean
}

func shortSuffix() string {
	return strings.SplitN(uuid.NewString(), "-", 2)[0]
}
