package wizard

// Step identifies a registration dialogue state.
type Step int

const (
	StepNickname Step = iota
	StepWinRate
	StepLane
	StepRank
	// StepMythicTier is entered only after choosing the Mythic rank.
	StepMythicTier
	StepGoal
	StepBio
	StepPhotoChoice
	// StepPhotoUpload is entered only when the user chose to attach a photo.
	StepPhotoUpload
	StepComplete
)

var stepNames = map[Step]string{
	StepNickname:    "nickname",
	StepWinRate:     "win_rate",
	StepLane:        "lane",
	StepRank:        "rank",
	StepMythicTier:  "mythic_tier",
	StepGoal:        "goal",
	StepBio:         "bio",
	StepPhotoChoice: "photo_choice",
	StepPhotoUpload: "photo_upload",
	StepComplete:    "complete",
}

// String returns the step name used in catalog keys and logs.
func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return "unknown"
}
