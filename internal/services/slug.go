package services

import "github.com/gosimple/slug"

// Slugify derives the project-unique slug of a definition or environment name.
func Slugify(name string) string {
	return slug.Make(name)
}
