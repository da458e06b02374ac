// Package soap implements a minimal SuiteTalk client: it posts hand-built
// SOAP envelopes carrying a passport header and translates transport and
// fault failures into the proxy error taxonomy.
package soap

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"nsproxy/netsuite"
)

// Client talks to one account's SuiteTalk endpoint. It owns one HTTP session
// for the lifetime of the owning auth service and must not be shared across
// authentication identities.
type Client struct {
	cfg       *netsuite.AccountConfig
	passports *netsuite.PassportBuilder
	endpoint  string
	timeout   time.Duration
	http      *http.Client
}

// New builds a SOAP client for the given account. The endpoint is derived
// from the account id and API version unless a WSDL override names another
// host.
func New(cfg *netsuite.AccountConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = netsuite.DefaultSOAPTimeout
	}
	endpoint := cfg.SOAPEndpoint()
	if cfg.WSDLURL != "" {
		if override, err := url.Parse(cfg.WSDLURL); err == nil && override.Host != "" {
			endpoint = override.Scheme + "://" + override.Host + "/services/NetSuitePort_" + cfg.APIVersion
		}
	}
	return &Client{
		cfg:       cfg,
		passports: netsuite.NewPassportBuilder(),
		endpoint:  endpoint,
		timeout:   timeout,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// WithPassportBuilder swaps the passport builder; tests use this to inject a
// deterministic nonce and clock.
func (c *Client) WithPassportBuilder(b *netsuite.PassportBuilder) *Client {
	c.passports = b
	return c
}

// Endpoint reports the resolved SuiteTalk service URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

type requestEnvelope struct {
	XMLName xml.Name `xml:"soapenv:Envelope"`
	SoapNS  string   `xml:"xmlns:soapenv,attr"`
	Header  requestHeader
	Body    requestBody
}

type requestHeader struct {
	XMLName         xml.Name `xml:"soapenv:Header"`
	TokenPassport   *netsuite.TokenPassport
	Passport        *netsuite.Passport
	ApplicationInfo *applicationInfo
}

type applicationInfo struct {
	XMLName       xml.Name `xml:"applicationInfo"`
	ApplicationID string   `xml:"applicationId"`
}

type requestBody struct {
	XMLName       xml.Name `xml:"soapenv:Body"`
	GetServerTime *getServerTimeRequest
}

type getServerTimeRequest struct {
	XMLName xml.Name `xml:"getServerTime"`
}

type responseEnvelope struct {
	XMLName xml.Name     `xml:"Envelope"`
	Body    responseBody `xml:"Body"`
}

type responseBody struct {
	Fault         *soapFault             `xml:"Fault"`
	GetServerTime *getServerTimeResponse `xml:"getServerTimeResponse"`
}

type soapFault struct {
	Code   string `xml:"faultcode"`
	String string `xml:"faultstring"`
}

type getServerTimeResponse struct {
	Result getServerTimeResult `xml:"getServerTimeResult"`
}

type getServerTimeResult struct {
	Status     operationStatus `xml:"status"`
	ServerTime string          `xml:"serverTime"`
}

type operationStatus struct {
	IsSuccess bool           `xml:"isSuccess,attr"`
	Detail    []statusDetail `xml:"statusDetail"`
}

type statusDetail struct {
	Code    string `xml:"code"`
	Message string `xml:"message"`
}

// GetServerTime issues the SuiteTalk getServerTime operation with a freshly
// built passport and returns the provider clock. The original proxy used
// this operation to validate credentials without touching records.
func (c *Client) GetServerTime(ctx context.Context) (time.Time, error) {
	body, err := c.call(ctx, "getServerTime", requestBody{GetServerTime: &getServerTimeRequest{}})
	if err != nil {
		return time.Time{}, err
	}
	if body.GetServerTime == nil {
		return time.Time{}, netsuite.NewGeneric("NetSuite SOAP error: empty getServerTime response", nil)
	}
	result := body.GetServerTime.Result
	if !result.Status.IsSuccess {
		return time.Time{}, statusError(result.Status)
	}
	serverTime, ok := netsuite.ParseTimestamp(result.ServerTime)
	if !ok {
		return time.Time{}, netsuite.NewGeneric(
			fmt.Sprintf("NetSuite SOAP error: unparseable server time %q", result.ServerTime), nil)
	}
	return serverTime, nil
}

// call posts one SOAP envelope and decodes the response body, translating
// every failure into the error taxonomy.
func (c *Client) call(ctx context.Context, operation string, body requestBody) (*responseBody, error) {
	creds, err := c.passports.Build(c.cfg)
	if err != nil {
		return nil, err
	}
	envelope := requestEnvelope{
		SoapNS: "http://schemas.xmlsoap.org/soap/envelope/",
		Header: requestHeader{
			TokenPassport:   creds.TokenPassport,
			Passport:        creds.Passport,
			ApplicationInfo: &applicationInfo{ApplicationID: c.cfg.ApplicationID},
		},
		Body: body,
	}
	payload, err := xml.Marshal(envelope)
	if err != nil {
		return nil, netsuite.NewGeneric(fmt.Sprintf("NetSuite SOAP error: encode envelope: %v", err), err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint,
		bytes.NewReader(append([]byte(xml.Header), payload...)))
	if err != nil {
		return nil, netsuite.NewGeneric(fmt.Sprintf("NetSuite SOAP error: %v", err), err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", operation)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, c.translateTransportError(operation, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, netsuite.NewGeneric(fmt.Sprintf("NetSuite SOAP error: read response: %v", err), err)
	}
	var decoded responseEnvelope
	if err := xml.Unmarshal(raw, &decoded); err != nil {
		return nil, netsuite.NewGeneric(fmt.Sprintf("NetSuite SOAP error: decode response: %v", err), err)
	}
	if decoded.Body.Fault != nil {
		return nil, translateFault(decoded.Body.Fault, operation, int(c.timeout.Seconds()))
	}
	return &decoded.Body, nil
}

// translateTransportError maps request failures: deadline hits become
// Timeout, everything else a generic SOAP error.
func (c *Client) translateTransportError(operation string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return netsuite.NewTimeout("SOAP "+operation, int(c.timeout.Seconds()))
	}
	message := err.Error()
	if strings.Contains(strings.ToLower(message), "timeout") {
		return netsuite.NewTimeout("SOAP "+operation, int(c.timeout.Seconds()))
	}
	return netsuite.NewGeneric("NetSuite SOAP error: "+message, err)
}

// translateFault applies the fault taxonomy: authentication wording wins
// over the structured fault, then the fault code/string pair.
func translateFault(fault *soapFault, operation string, timeoutSeconds int) error {
	lowered := strings.ToLower(fault.String)
	if strings.Contains(lowered, "timeout") {
		return netsuite.NewTimeout("SOAP "+operation, timeoutSeconds)
	}
	if strings.Contains(lowered, "authentication") || strings.Contains(lowered, "invalid login") {
		return netsuite.NewAuthentication("NetSuite authentication failed")
	}
	code := fault.Code
	if code == "" {
		code = "Unknown"
	}
	return netsuite.NewSOAPFault(code, fault.String)
}

func statusError(status operationStatus) error {
	if len(status.Detail) > 0 {
		detail := status.Detail[0]
		lowered := strings.ToLower(detail.Message)
		if strings.Contains(lowered, "authentication") || strings.Contains(lowered, "invalid login") {
			return netsuite.NewAuthentication("NetSuite authentication failed")
		}
		return netsuite.NewSOAPFault(detail.Code, detail.Message)
	}
	return netsuite.NewGeneric("NetSuite SOAP error: operation reported failure", nil)
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
