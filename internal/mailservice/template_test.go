package mailservice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTemplate(t *testing.T) {
	tp, err := NewTemplate()
	require.NoError(t, err)
	assert.Contains(t, tp.sets, postPublishedTemplate)
}

func TestParseTemplate(t *testing.T) {
	template, err := NewTemplate()
	require.NoError(t, err)

	testCases := []struct {
		name         string
		templateName string
		data         any
		expectedErr  bool
		contains     string
	}{
		{
			name:         "success",
			templateName: postPublishedTemplate,
			data: postPublished{
				Title:    "Hello",
				Excerpt:  "An excerpt",
				Category: "AI & Tech",
				URL:      "https://example.com/blog/hello",
			},
			expectedErr: false,
			contains:    "https://example.com/blog/hello",
		},
		{
			name:         "html is escaped",
			templateName: postPublishedTemplate,
			data: postPublished{
				Title: "<b>bold</b>",
				URL:   "https://example.com/blog/bold",
			},
			expectedErr: false,
			contains:    "&lt;b&gt;bold&lt;/b&gt;",
		},
		{
			name:         "invalid template name",
			templateName: "invalid_template.html",
			data:         nil,
			expectedErr:  true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, p, h, err := template.ParseTemplate(tc.templateName, tc.data)
			assert.Equal(t, tc.expectedErr, err != nil)

			if err == nil {
				assert.NotEmpty(t, s.String())
				assert.NotEmpty(t, p.String())
				assert.Contains(t, h.String(), tc.contains)
			}
		})
	}
}
