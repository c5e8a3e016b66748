package thumbnail

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"go-media-platform/internal/faults"
)

// VideoInfo is the technical metadata ffprobe reports for a video file.
type VideoInfo struct {
	Width      int
	Height     int
	Duration   string
	Bitrate    string
	VideoCodec string
	AudioCodec string
	FrameRate  string
}

// probeVideo extracts stream and container details from a local video file.
func probeVideo(ctx context.Context, path string) (*VideoInfo, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path)

	output, err := cmd.Output()
	if err != nil {
		return nil, &faults.ExternalToolError{Tool: "ffprobe", Output: string(output), Err: err}
	}

	var result struct {
		Streams []struct {
			CodecType  string `json:"codec_type"`
			CodecName  string `json:"codec_name"`
			Width      int    `json:"width,omitempty"`
			Height     int    `json:"height,omitempty"`
			RFrameRate string `json:"r_frame_rate,omitempty"`
		} `json:"streams"`
		Format struct {
			Duration string `json:"duration"`
			BitRate  string `json:"bit_rate"`
		} `json:"format"`
	}
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := &VideoInfo{
		Duration: result.Format.Duration,
		Bitrate:  result.Format.BitRate,
	}
	for _, stream := range result.Streams {
		switch stream.CodecType {
		case "video":
			info.VideoCodec = stream.CodecName
			info.Width = stream.Width
			info.Height = stream.Height
			// Frame rate arrives as "num/den".
			if parts := strings.Split(stream.RFrameRate, "/"); len(parts) == 2 {
				num, _ := strconv.ParseFloat(parts[0], 64)
				den, _ := strconv.ParseFloat(parts[1], 64)
				if den > 0 {
					info.FrameRate = fmt.Sprintf("%.2f", num/den)
				}
			}
		case "audio":
			info.AudioCodec = stream.CodecName
		}
	}
	return info, nil
}

// metadataPatch renders the probe result as camelCased metadata entries.
func (v *VideoInfo) metadataPatch() map[string]interface{} {
	patch := map[string]interface{}{}
	if v.Width > 0 && v.Height > 0 {
		patch["width"] = v.Width
		patch["height"] = v.Height
		patch["aspectRatio"] = fmt.Sprintf("%d:%d", v.Width, v.Height)
	}
	if v.Duration != "" {
		patch["duration"] = v.Duration
	}
	if v.Bitrate != "" {
		patch["bitrate"] = v.Bitrate
	}
	if v.VideoCodec != "" {
		patch["videoCodec"] = v.VideoCodec
	}
	if v.AudioCodec != "" {
		patch["audioCodec"] = v.AudioCodec
	}
	if v.FrameRate != "" {
		patch["frameRate"] = v.FrameRate
	}
	return patch
}
