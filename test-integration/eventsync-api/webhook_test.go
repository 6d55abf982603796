package integration

import (
	"bytes"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gopkg.in/yaml.v3"

	"github.com/mindfulina/eventsync/internal/content"
	"github.com/mindfulina/eventsync/test-integration/eventsync-api/helpers"
)

const (
	soundBathPayload = `{
		"title": "Evening Sound Bath",
		"startTime": "2025-06-01T18:00:00-10:00",
		"endTime": "2025-06-01T18:45:00-10:00",
		"location": "Kailua Beach Park",
		"description": "Bring a mat.",
		"googleCalendarEventId": "abc123"
	}`
	soundBathRecord = "events/2025-06-01-evening-sound-bath.md"
)

// frontMatter parses the YAML header of a written record
func frontMatter(doc []byte) content.FrontMatter {
	parts := bytes.SplitN(doc, []byte("---\n"), 3)
	Expect(parts).To(HaveLen(3), string(doc))

	var fm content.FrontMatter
	Expect(yaml.Unmarshal(parts[1], &fm)).To(Succeed())
	return fm
}

var _ = Describe("Event Webhook Integration", Label("webhook"), func() {
	var (
		tempDir      string
		eventbrite   *helpers.FakeEventbrite
		github       *helpers.FakeGitHub
		serverHelper *helpers.ServerTestHelper
	)

	startServer := func(registrationEnabled bool) {
		configFile := helpers.WriteConfig(tempDir, eventbrite.URL(), github.URL(), registrationEnabled)
		serverHelper = helpers.NewServerTestHelper(ctx, configFile)
		Expect(serverHelper.StartServer()).To(Succeed())
		serverHelper.WaitForServerReady(10 * time.Second)
	}

	BeforeEach(func() {
		tempDir = createTempDir("eventsync-test-")
	})

	AfterEach(func() {
		if serverHelper != nil {
			Expect(serverHelper.StopServer()).To(Succeed())
			serverHelper = nil
		}
		eventbrite.Close()
		github.Close()
		cleanupTempDir(tempDir)
	})

	Context("when both platforms accept the event", func() {
		BeforeEach(func() {
			eventbrite = helpers.NewFakeEventbriteBuilder().Build()
			github = helpers.NewFakeGitHub(http.StatusCreated)
			startServer(true)
		})

		It("should publish the registration and link it from the content record", func() {
			resp, err := serverHelper.PostEvent(soundBathPayload)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			res := helpers.DecodeResult(resp)
			Expect(res.OverallStatus).To(Equal("success"))
			Expect(res.RunID).NotTo(BeEmpty())
			Expect(res.Registration).NotTo(BeNil())
			Expect(res.Registration.Success).To(BeTrue())
			Expect(res.Registration.Published).To(BeTrue())
			Expect(res.Registration.ResourceURL).To(Equal(eventbrite.EventURL()))
			Expect(res.Content.Success).To(BeTrue())
			Expect(res.Content.ResourceID).To(Equal(soundBathRecord))

			doc, ok := github.File(soundBathRecord)
			Expect(ok).To(BeTrue())
			fm := frontMatter(doc)
			Expect(fm.Title).To(Equal("Evening Sound Bath"))
			Expect(fm.GoogleCalendarEventID).To(Equal("abc123"))
			Expect(fm.EventbriteLink).To(Equal(eventbrite.EventURL()))
			Expect(string(doc)).To(ContainSubstring("Bring a mat."))
		})

		It("should authenticate to each platform with its own token", func() {
			resp, err := serverHelper.PostEvent(soundBathPayload)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			_ = resp.Body.Close()

			Expect(eventbrite.Calls()).NotTo(BeEmpty())
			for _, c := range eventbrite.Calls() {
				Expect(c.Auth).To(Equal("Bearer " + helpers.EventbriteToken))
			}
			Expect(github.Calls()).NotTo(BeEmpty())
			for _, c := range github.Calls() {
				Expect(c.Auth).To(Equal("Bearer " + helpers.ContentToken))
			}
		})

		It("should overwrite the record when the same event is sent again", func() {
			for range 2 {
				resp, err := serverHelper.PostEvent(soundBathPayload)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				_ = resp.Body.Close()
			}

			var puts []helpers.Call
			for _, c := range github.Calls() {
				if c.Method == http.MethodPut {
					puts = append(puts, c)
				}
			}
			Expect(puts).To(HaveLen(2))
			Expect(puts[0].Body).NotTo(HaveKey("sha"))
			Expect(puts[1].Body).To(HaveKeyWithValue("sha", "existing-sha"))
		})

		It("should reject a payload without a calendar event id before calling either platform", func() {
			resp, err := serverHelper.PostEvent(`{"title": "Evening Sound Bath", "startTime": "2025-06-01T18:00:00-10:00"}`)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

			res := helpers.DecodeResult(resp)
			Expect(res.OverallStatus).To(Equal("invalid_request"))
			Expect(res.Message).To(ContainSubstring("googleCalendarEventId"))
			Expect(eventbrite.Calls()).To(BeEmpty())
			Expect(github.Calls()).To(BeEmpty())
		})

		It("should reject a request with the wrong webhook secret", func() {
			resp, err := serverHelper.PostEventWithSecret(soundBathPayload, "wrong")
			Expect(err).NotTo(HaveOccurred())
			_ = resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			Expect(eventbrite.Calls()).To(BeEmpty())
			Expect(github.Calls()).To(BeEmpty())
		})

		It("should report readiness once all credentials resolve", func() {
			resp, err := serverHelper.GetReadiness()
			Expect(err).NotTo(HaveOccurred())
			_ = resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})
	})

	Context("when Eventbrite does not publish the registration", func() {
		BeforeEach(func() {
			eventbrite = helpers.NewFakeEventbriteBuilder().WithPublished(false).Build()
			github = helpers.NewFakeGitHub(http.StatusCreated)
			startServer(true)
		})

		It("should write the record without a registration link and report partial", func() {
			resp, err := serverHelper.PostEvent(soundBathPayload)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusMultiStatus))

			res := helpers.DecodeResult(resp)
			Expect(res.OverallStatus).To(Equal("partial"))
			Expect(res.Registration.Success).To(BeTrue())
			Expect(res.Registration.Published).To(BeFalse())
			Expect(res.Content.Success).To(BeTrue())

			doc, ok := github.File(soundBathRecord)
			Expect(ok).To(BeTrue())
			Expect(frontMatter(doc).EventbriteLink).To(BeEmpty())
		})
	})

	Context("when the publish call fails", func() {
		BeforeEach(func() {
			eventbrite = helpers.NewFakeEventbriteBuilder().WithPublishStatus(http.StatusInternalServerError).Build()
			github = helpers.NewFakeGitHub(http.StatusCreated)
			startServer(true)
		})

		It("should keep the created registration unpublished and report partial", func() {
			resp, err := serverHelper.PostEvent(soundBathPayload)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusMultiStatus))

			res := helpers.DecodeResult(resp)
			Expect(res.Registration.Success).To(BeTrue())
			Expect(res.Registration.Published).To(BeFalse())
			Expect(res.Registration.ResourceID).To(Equal("1001"))

			doc, ok := github.File(soundBathRecord)
			Expect(ok).To(BeTrue())
			Expect(frontMatter(doc).EventbriteLink).To(BeEmpty())
		})
	})

	Context("when the template copy is rejected", func() {
		BeforeEach(func() {
			eventbrite = helpers.NewFakeEventbriteBuilder().WithCopyStatus(http.StatusForbidden).Build()
			github = helpers.NewFakeGitHub(http.StatusCreated)
			startServer(true)
		})

		It("should still write the record and report partial", func() {
			resp, err := serverHelper.PostEvent(soundBathPayload)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusMultiStatus))

			res := helpers.DecodeResult(resp)
			Expect(res.Registration.Success).To(BeFalse())
			Expect(res.Registration.ErrorDetail).NotTo(BeEmpty())
			Expect(res.Content.Success).To(BeTrue())

			doc, ok := github.File(soundBathRecord)
			Expect(ok).To(BeTrue())
			Expect(frontMatter(doc).EventbriteLink).To(BeEmpty())
		})
	})

	Context("when GitHub rejects the write", func() {
		BeforeEach(func() {
			eventbrite = helpers.NewFakeEventbriteBuilder().Build()
			github = helpers.NewFakeGitHub(http.StatusUnprocessableEntity)
			startServer(true)
		})

		It("should keep the published registration and report partial", func() {
			resp, err := serverHelper.PostEvent(soundBathPayload)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusMultiStatus))

			res := helpers.DecodeResult(resp)
			Expect(res.OverallStatus).To(Equal("partial"))
			Expect(res.Registration.Published).To(BeTrue())
			Expect(res.Content.Success).To(BeFalse())
			Expect(res.Content.ErrorDetail).NotTo(BeEmpty())

			_, ok := github.File(soundBathRecord)
			Expect(ok).To(BeFalse())
		})
	})

	Context("when registration is disabled", func() {
		BeforeEach(func() {
			eventbrite = helpers.NewFakeEventbriteBuilder().Build()
			github = helpers.NewFakeGitHub(http.StatusCreated)
			startServer(false)
		})

		It("should only write the content record", func() {
			resp, err := serverHelper.PostEvent(soundBathPayload)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			res := helpers.DecodeResult(resp)
			Expect(res.OverallStatus).To(Equal("success"))
			Expect(res.Registration).To(BeNil())
			Expect(res.Content.Success).To(BeTrue())
			Expect(eventbrite.Calls()).To(BeEmpty())
		})
	})
})
