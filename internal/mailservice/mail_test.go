package mailservice

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestSendEmail(t *testing.T) {
	testCases := []struct {
		name        string
		parseErr    error
		dialErr     error
		expectDial  bool
		expectedErr error
	}{
		{
			name:       "success",
			expectDial: true,
		},
		{
			name:        "template error",
			parseErr:    errors.New("could not parse template"),
			expectedErr: errors.New("could not parse template"),
		},
		{
			name:        "dial error",
			dialErr:     errors.New("connection refused"),
			expectDial:  true,
			expectedErr: errors.New("connection refused"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockParser := new(MockTemplate)
			mockDialer := new(MockDialer)

			mailer := Mail{
				dialer: mockDialer,
				parser: mockParser,
				sender: "sender@example.com",
			}

			if tc.parseErr != nil {
				mockParser.On("ParseTemplate", "template.html", mock.Anything).Return(nil, nil, nil, tc.parseErr)
			} else {
				mockParser.On("ParseTemplate", "template.html", mock.Anything).Return(
					bytes.NewBufferString("Test Subject"),
					bytes.NewBufferString("Test Plain Body"),
					bytes.NewBufferString("Test HTML Body"),
					nil,
				)
			}
			mockDialer.On("DialAndSend", mock.AnythingOfType("[]*mail.Message")).Return(tc.dialErr)

			err := mailer.send("test@example.com", postPublished{Title: "Hello"}, "template.html")
			assert.Equal(t, tc.expectedErr, err)

			mockParser.AssertExpectations(t)
			if tc.expectDial {
				mockDialer.AssertExpectations(t)
			} else {
				mockDialer.AssertNotCalled(t, "DialAndSend", mock.Anything)
			}
		})
	}
}
