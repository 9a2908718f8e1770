package blogservice

import (
	"regexp"

	"github.com/sushihentaime/portfolio/internal/common"
)

const (
	maxImageSize = 5 << 20
)

var (
	SlugRX = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

	imageTypes = []string{"image/jpeg", "image/png", "image/webp"}
)

func validateTitle(v *common.Validator, title string) {
	v.Check(title != "", "title", "must be provided")
	v.Check(v.CheckStringLength(title, 1, 200), "title", "must be between 1 and 200 characters long")
}

func validateExcerpt(v *common.Validator, excerpt string) {
	v.Check(v.CheckStringLength(excerpt, 0, 500), "excerpt", "must not be more than 500 characters long")
}

func validateContent(v *common.Validator, content string) {
	v.Check(content != "", "content", "must be provided")
	v.Check(v.CheckStringLength(content, 0, 100000), "content", "must not be more than 100000 characters long")
}

func validateSlug(v *common.Validator, slug string) {
	v.Check(slug != "", "slug", "must be provided")
	v.Check(v.CheckStringLength(slug, 0, 200), "slug", "must not be more than 200 characters long")
	v.Check(v.Matches(slug, SlugRX), "slug", "must only contain lowercase letters, numbers, and single hyphens")
}

// validateSlugLookup accepts any slug a visitor might type; malformed ones simply
// match nothing.
func validateSlugLookup(v *common.Validator, slug string) {
	v.Check(slug != "", "slug", "must be provided")
	v.Check(v.CheckStringLength(slug, 0, 200), "slug", "must not be more than 200 characters long")
}

func validateCategory(v *common.Validator, category string) {
	v.Check(v.CheckStringLength(category, 0, 100), "category", "must not be more than 100 characters long")
}

func validateTags(v *common.Validator, tags Tags) {
	v.Check(v.CheckStringLength(tags.String(), 0, 500), "tags", "must not be more than 500 characters long in total")
}

func validateReadTime(v *common.Validator, minutes int) {
	v.Check(minutes >= 1 && minutes <= 1000, "read_time", "must be between 1 and 1000")
}

func validateImage(v *common.Validator, img *ImageUpload) {
	if img == nil {
		return
	}
	v.Check(img.FileName != "", "featured_image", "must have a file name")
	v.Check(len(img.Data) > 0, "featured_image", "must not be empty")
	v.Check(len(img.Data) <= maxImageSize, "featured_image", "must not be larger than 5MB")
	v.Check(v.PermittedValue(img.ContentType, imageTypes...), "featured_image", "must be a jpeg, png, or webp image")
}

func validateID(v *common.Validator, id string) {
	v.Check(id != "", "id", "must be provided")
}
