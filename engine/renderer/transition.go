package renderer

// TransitionImage records one barrier on cmd that moves image from oldLayout
// to newLayout. The barrier covers every mip level and array layer and uses
// the depth aspect only when the target is a depth attachment.
//
// The execution scope is all commands on both sides: the barrier waits for
// every prior GPU command and blocks every later one. That is fine for the
// handful of transitions a frame does today; per-use stage masks are the
// first thing to narrow if transitions grow into a post-processing chain.
func TransitionImage(cmd CommandRecorder, image Image, oldLayout, newLayout ImageLayout) {
	aspect := AspectColor
	if newLayout == LayoutDepthAttachment {
		aspect = AspectDepth
	}

	cmd.PipelineBarrier(ImageBarrier{
		Image:     image,
		OldLayout: oldLayout,
		NewLayout: newLayout,
		SrcStage:  StageAllCommands,
		SrcAccess: AccessMemoryWrite,
		DstStage:  StageAllCommands,
		DstAccess: AccessMemoryWrite | AccessMemoryRead,
		Range:     wholeImage(aspect),
	})
}

func wholeImage(aspect ImageAspect) SubresourceRange {
	return SubresourceRange{
		Aspect: aspect,
	}
}
