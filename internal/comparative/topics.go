package comparative

import (
	"sort"

	"github.com/seenimoa/newspulse/pkg/models"
)

type topicSet map[string]struct{}

func newTopicSet(topics []string) topicSet {
	s := make(topicSet, len(topics))
	for _, t := range topics {
		if t == "" {
			continue
		}
		s[t] = struct{}{}
	}
	return s
}

func (s topicSet) sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// topicOverlap intersects all topic sets. The intersection over zero
// articles is empty, not universal.
func topicOverlap(articles []models.ArticleAnnotation) models.TopicOverlap {
	sets := make([]topicSet, len(articles))
	for i, a := range articles {
		sets[i] = newTopicSet(a.Topics)
	}

	common := topicSet{}
	if len(sets) > 0 {
		for t := range sets[0] {
			inAll := true
			for _, s := range sets[1:] {
				if _, ok := s[t]; !ok {
					inAll = false
					break
				}
			}
			if inAll {
				common[t] = struct{}{}
			}
		}
	}

	overlap := models.TopicOverlap{
		CommonTopics:        common.sorted(),
		UniqueTopicsByTitle: make(map[string][]string, len(articles)),
		UniqueTopics:        make([]models.ArticleTopics, 0, len(articles)),
	}
	for i, a := range articles {
		unique := topicSet{}
		for t := range sets[i] {
			if _, shared := common[t]; !shared {
				unique[t] = struct{}{}
			}
		}
		topics := unique.sorted()
		overlap.UniqueTopicsByTitle[a.Title] = topics
		overlap.UniqueTopics = append(overlap.UniqueTopics, models.ArticleTopics{
			Index:  i,
			Title:  a.Title,
			URL:    a.URL,
			Topics: topics,
		})
	}
	return overlap
}
