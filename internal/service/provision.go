package service

import (
	"fmt"
	"strings"
)

// URL templates handed to the softphone. The %...% and {...}
// placeholders are substituted by the softphone and the provider
// respectively, not by this relay.

func (s *RelayService) ReportURL() string {
	return fmt.Sprintf("%s/report?token=%%pushToken%%&appid=%%pushappid%%&selector=%%selector%%", s.serverURL)
}

func (s *RelayService) FetchURL() string {
	return fmt.Sprintf("%s/fetch?last_id=%%last_known_sms_id%%", s.serverURL)
}

func (s *RelayService) SendURL() string {
	return fmt.Sprintf("%s/send?to=%%sms_to%%&body=%%sms_body%%", s.serverURL)
}

func (s *RelayService) NotifyURL() string {
	return fmt.Sprintf("%s/notify?message={MESSAGE}&from={FROM}&to={TO}", s.serverURL)
}

// renderAccountXML builds the account descriptor the softphone imports.
// The raw envelope is echoed back as POST data so every later call
// carries the credential; URLs are ampersand-escaped for XML.
func renderAccountXML(envelope, reportURL, fetchURL, sendURL, notifyURL string) string {
	return fmt.Sprintf(`<account>
    <pushTokenReporterUrl>%s</pushTokenReporterUrl>
    <pushTokenReporterPostData>%s</pushTokenReporterPostData>
    <pushTokenReporterContentType>text/plain</pushTokenReporterContentType>

    <genericSmsFetchUrl>%s</genericSmsFetchUrl>
    <genericSmsFetchPostData>%s</genericSmsFetchPostData>
    <genericSmsFetchContentType>text/plain</genericSmsFetchContentType>

    <genericSmsSendUrl>%s</genericSmsSendUrl>
    <genericSmsPostData>%s</genericSmsPostData>
    <genericSmsContentType>text/plain</genericSmsContentType>

    <voipmsNotificationUrl>%s</voipmsNotificationUrl>
    <allowMessage>1</allowMessage>
    <voiceMailNumber>*97</voiceMailNumber>
</account>`,
		xmlEscape(reportURL), envelope,
		xmlEscape(fetchURL), envelope,
		xmlEscape(sendURL), envelope,
		xmlEscape(notifyURL))
}

func xmlEscape(s string) string {
	return strings.ReplaceAll(s, "&", "&amp;")
}
