package mirror

import (
	"fmt"
	"regexp"

	"github.com/temirov/gitmirror/internal/githubcli"
	"github.com/temirov/gitmirror/internal/retryqueue"
)

const (
	mirrorNameSeparatorConstant          = "_"
	mirrorNameReplacementConstant        = "-"
	fullNameTemplateConstant             = "%s/%s"
	mirrorCollisionErrorTemplateConstant = "mirror name %s is attributed to %s, not %s"
)

var mirrorNameSanitizePattern = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// RepositoryDescriptor is the read-only description of an upstream repository
// to mirror.
type RepositoryDescriptor struct {
	Owner       string
	Name        string
	FullName    string
	CloneURL    string
	HTMLURL     string
	Description string
	Language    string
	Stars       int
	Forks       int
	Topics      []string
}

// DescriptorFromHosting converts a hosting API repository into a descriptor.
func DescriptorFromHosting(repository githubcli.Repository) RepositoryDescriptor {
	return RepositoryDescriptor{
		Owner:       repository.Owner,
		Name:        repository.Name,
		FullName:    repository.FullName,
		CloneURL:    repository.CloneURL,
		HTMLURL:     repository.HTMLURL,
		Description: repository.Description,
		Language:    repository.Language,
		Stars:       repository.Stars,
		Forks:       repository.Forks,
		Topics:      repository.Topics,
	}
}

// DescriptorFromQueue reconstructs a descriptor from a persisted queue entry.
func DescriptorFromQueue(repository retryqueue.Repository) RepositoryDescriptor {
	return RepositoryDescriptor{
		Owner:       repository.Owner,
		Name:        repository.Name,
		FullName:    repository.FullName,
		CloneURL:    repository.CloneURL,
		HTMLURL:     repository.HTMLURL,
		Description: repository.Description,
		Language:    repository.Language,
		Stars:       repository.Stars,
		Forks:       repository.Forks,
		Topics:      repository.Topics,
	}
}

// QueueRepository converts the descriptor into its persisted queue form.
func (descriptor RepositoryDescriptor) QueueRepository() retryqueue.Repository {
	return retryqueue.Repository{
		Owner:       descriptor.Owner,
		Name:        descriptor.Name,
		FullName:    descriptor.FullName,
		CloneURL:    descriptor.CloneURL,
		HTMLURL:     descriptor.HTMLURL,
		Description: descriptor.Description,
		Language:    descriptor.Language,
		Stars:       descriptor.Stars,
		Forks:       descriptor.Forks,
		Topics:      descriptor.Topics,
	}
}

// MirrorName derives the mirror repository name from the upstream owner and
// name. Characters outside [A-Za-z0-9._-] are replaced so the result is a
// valid GitHub repository name.
func MirrorName(descriptor RepositoryDescriptor) string {
	sanitizedOwner := mirrorNameSanitizePattern.ReplaceAllString(descriptor.Owner, mirrorNameReplacementConstant)
	sanitizedName := mirrorNameSanitizePattern.ReplaceAllString(descriptor.Name, mirrorNameReplacementConstant)
	return sanitizedOwner + mirrorNameSeparatorConstant + sanitizedName
}

// MirrorHandle identifies an existing mirror repository.
type MirrorHandle struct {
	FullName string
	HTMLURL  string
	CloneURL string
	Homepage string
}

// OutcomeStatus enumerates the closed set of lifecycle outcomes.
type OutcomeStatus string

// Lifecycle outcome statuses.
const (
	OutcomeStatusBlocked     OutcomeStatus = "blocked"
	OutcomeStatusRateLimited OutcomeStatus = "rate_limited"
	OutcomeStatusSuccess     OutcomeStatus = "success"
	OutcomeStatusFailed      OutcomeStatus = "failed"
)

// Outcome reports the result of one lifecycle pass over a repository.
type Outcome struct {
	Status         OutcomeStatus
	Reason         string
	MirrorURL      string
	RemainingQuota int
	Err            error
}

// QueueReport summarizes one draining pass over the retry queue.
type QueueReport struct {
	Attempted int
	Mirrored  int
	Blocked   int
	Failed    int
	Remaining int
}

// BatchReport tallies outcomes across a batch of repositories.
type BatchReport struct {
	Mirrored    int
	Blocked     int
	RateLimited int
	Failed      int
}

// Record folds a single outcome into the tally.
func (report *BatchReport) Record(outcome Outcome) {
	switch outcome.Status {
	case OutcomeStatusSuccess:
		report.Mirrored++
	case OutcomeStatusBlocked:
		report.Blocked++
	case OutcomeStatusRateLimited:
		report.RateLimited++
	default:
		report.Failed++
	}
}

// MirrorCollisionError reports a mirror name already claimed by a different upstream.
type MirrorCollisionError struct {
	MirrorFullName    string
	ExistingUpstream  string
	RequestedUpstream string
}

// Error describes the collision.
func (collisionError MirrorCollisionError) Error() string {
	return fmt.Sprintf(mirrorCollisionErrorTemplateConstant, collisionError.MirrorFullName, collisionError.ExistingUpstream, collisionError.RequestedUpstream)
}
