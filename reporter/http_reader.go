// Reader is a testing facility to read the output of a http reporter.

package reporter

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
)

type HttpReader struct {
	baseURL string
}

func NewHttpReader(serverIP string, serverPort string) *HttpReader {
	return &HttpReader{
		baseURL: "http://" + serverIP + ":" + serverPort,
	}
}

func (hr *HttpReader) GetHello() (string, error) {
	return hr.get(ROUTE_HELLO, nil)
}

func (hr *HttpReader) GetBalance(address string) (string, error) {
	return hr.get(ROUTE_BALANCE, url.Values{"address": {address}})
}

func (hr *HttpReader) GetUtxos(address string) (string, error) {
	return hr.get(ROUTE_UTXOS, url.Values{"address": {address}})
}

func (hr *HttpReader) GetExitQueue(currency string) (string, error) {
	return hr.get(ROUTE_EXIT_QUEUE, url.Values{"currency": {currency}})
}

func (hr *HttpReader) GetExits(owner string) (string, error) {
	q := url.Values{}
	if owner != "" {
		q.Set("owner", owner)
	}
	return hr.get(ROUTE_EXITS, q)
}

func (hr *HttpReader) get(route string, query url.Values) (string, error) {
	u := hr.baseURL + route
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	resp, err := http.Get(u)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return string(body), fmt.Errorf("%s: %s", route, resp.Status)
	}
	return string(body), nil
}
