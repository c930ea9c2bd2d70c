package pulso

import (
	"net/url"
	"regexp"

	"github.com/go-kit/log"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/pulsoapp/pulso/db"
	"github.com/pulsoapp/pulso/pubsub"
	"github.com/pulsoapp/pulso/storage"
)

// Service contains the core business logic separated from the transport layer.
// You can use it to back a REST, gRPC or GraphQL API.
// You must call RunBackgroundJobs afterward.
type Service struct {
	Logger         log.Logger
	DB             *db.DB
	PubSub         pubsub.PubSub
	Store          storage.Store
	Origin         *url.URL
	Push           PushSender
	MediaURLPrefix string
	BannedWords    []string
}

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

var reID = regexp.MustCompile("^[0-9a-z]{20}$")

func genID() string {
	return gonanoid.MustGenerate(idAlphabet, 20)
}

func validID(s string) bool {
	return reID.MatchString(s)
}
