package controller

// AnnouncementIntro opens every spoken summary of a frame.
const AnnouncementIntro = "The objects detected, starting from the closest one, are as follows:"

// Announcement returns the phrases to speak for a result: the intro followed
// by each label, nearest first. A nil result or one without detections yields
// only the intro.
func Announcement(result *Result) []string {
	phrases := []string{AnnouncementIntro}
	if result == nil {
		return phrases
	}
	for _, d := range result.Detections {
		phrases = append(phrases, d.Label)
	}
	return phrases
}
