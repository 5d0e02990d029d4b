package datetimed

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// defaultEndpoints is a YML config for the endpoints served if no endpoints file is given.
const defaultEndpoints = `
endpoints:
  - port: 12345
    language: 1
    name: "English"
  - port: 12346
    language: 2
    name: "Māori"
  - port: 12347
    language: 3
    name: "German"
`

// Endpoint pairs a UDP port with the language code its responses carry.
type Endpoint struct {
	Port     int
	Language Language
	Name     string
}

// Endpoints implements the table of endpoints a server binds.
type Endpoints struct {
	Endpoints []Endpoint
}

var (
	ErrReadingEndpointsFile   = errors.New("reading endpoints file")
	ErrUnmarshallingEndpoints = errors.New("error unmarshalling endpoints file")
	ErrInvalidEndpoints       = errors.New("invalid endpoints")
)

// NewEndpoints loads the endpoint table from a file.
func NewEndpoints(endpointsPath string) (*Endpoints, error) {
	endpoints := &Endpoints{}

	var endpointsList []byte
	var err error

	if endpointsPath == "" {
		endpointsList = []byte(defaultEndpoints)
	} else if endpointsList, err = os.ReadFile(endpointsPath); err != nil {
		return nil, errors.Join(ErrReadingEndpointsFile, err)
	}

	if err := yaml.UnmarshalStrict(endpointsList, endpoints); err != nil {
		return nil, errors.Join(ErrUnmarshallingEndpoints, err)
	}

	if err := endpoints.validate(); err != nil {
		return nil, err
	}

	return endpoints, nil
}

// validate checks each port and each language code is used once.
// Port 0 asks the OS for a free port and may repeat.
func (e *Endpoints) validate() error {
	if len(e.Endpoints) == 0 {
		return fmt.Errorf("%w: no endpoints", ErrInvalidEndpoints)
	}

	ports := make(map[int]struct{})
	languages := make(map[Language]struct{})

	for _, ep := range e.Endpoints {
		if ep.Port < 0 || ep.Port > 65535 {
			return fmt.Errorf("%w: port %d out of range", ErrInvalidEndpoints, ep.Port)
		}
		if _, ok := ports[ep.Port]; ok && ep.Port != 0 {
			return fmt.Errorf("%w: port %d used twice", ErrInvalidEndpoints, ep.Port)
		}
		if _, ok := languages[ep.Language]; ok {
			return fmt.Errorf("%w: language %d used twice", ErrInvalidEndpoints, ep.Language)
		}
		ports[ep.Port] = struct{}{}
		languages[ep.Language] = struct{}{}
	}

	return nil
}
