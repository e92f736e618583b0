package handlers

import (
	"strings"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

const pictureField = "picture"

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm)
}

// pictureFromForm opens the optional picture part of a multipart request.
// The returned closer is always safe to call.
func pictureFromForm(c *fiber.Ctx) (*services.PictureUpload, func(), error) {
	noop := func() {}
	if !isMultipart(c) {
		return nil, noop, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, noop, err
	}
	files := form.File[pictureField]
	if len(files) == 0 {
		return nil, noop, nil
	}

	fh := files[0]
	f, err := fh.Open()
	if err != nil {
		return nil, noop, err
	}
	return &services.PictureUpload{
		Body:     f,
		Size:     fh.Size,
		Filename: fh.Filename,
	}, func() { f.Close() }, nil
}
